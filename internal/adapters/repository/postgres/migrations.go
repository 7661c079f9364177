package postgres

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS games_chats (
    id TEXT PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    player_kind SMALLINT NOT NULL,
    player_id BIGINT NOT NULL,
    player_name TEXT NOT NULL,
    points INTEGER NOT NULL CHECK (points >= 0),
    elapsed_seconds INTEGER NOT NULL CHECK (elapsed_seconds >= 0),
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_games_chats_chat_recorded ON games_chats(chat_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_games_chats_kind_recorded ON games_chats(player_kind, recorded_at);
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS awards (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL,
    chat_id BIGINT NOT NULL,
    player_kind SMALLINT NOT NULL,
    player_id BIGINT NOT NULL,
    trophy_id INTEGER NOT NULL,
    granted_at TIMESTAMP WITH TIME ZONE NOT NULL,
    UNIQUE (run_id, player_kind, player_id)
);

CREATE INDEX IF NOT EXISTS idx_awards_chat ON awards(chat_id, granted_at);
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS characters (
    id BIGSERIAL PRIMARY KEY,
    chat_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    ability SMALLINT NOT NULL CHECK (ability BETWEEN 0 AND 10)
);

CREATE INDEX IF NOT EXISTS idx_characters_chat ON characters(chat_id);
`

const migration004Up = `
CREATE TABLE IF NOT EXISTS closed_periods (
    claim_key TEXT PRIMARY KEY,
    claimed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`

// Migrations returns the schema history in order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_games_chats", UpSQL: migration001Up},
		{Version: 2, Name: "create_awards", UpSQL: migration002Up},
		{Version: 3, Name: "create_characters", UpSQL: migration003Up},
		{Version: 4, Name: "create_closed_periods", UpSQL: migration004Up},
	}
}
