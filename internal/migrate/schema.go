package migrate

import "github.com/GuiaBolso/darwin"

var postgresMigrations = []darwin.Migration{
	{
		Version:     1,
		Description: "Create profiles",
		Script: `CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			username      TEXT,
			location_data JSONB,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Version:     2,
		Description: "Create prayer_notifications ledger",
		Script: `CREATE TABLE IF NOT EXISTS prayer_notifications (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL,
			dedup_key TEXT NOT NULL,
			prayer    TEXT NOT NULL,
			sent_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, dedup_key)
		)`,
	},
	{
		Version:     3,
		Description: "Index ledger by dedup_key",
		Script:      `CREATE INDEX IF NOT EXISTS idx_prayer_notifications_key ON prayer_notifications (dedup_key)`,
	},
	{
		Version:     4,
		Description: "Index ledger by sent_at",
		Script:      `CREATE INDEX IF NOT EXISTS idx_prayer_notifications_sent_at ON prayer_notifications (sent_at)`,
	},
	{
		Version:     5,
		Description: "Create agendas",
		Script: `CREATE TABLE IF NOT EXISTS agendas (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			task_name   TEXT NOT NULL,
			target_time TIMESTAMPTZ NOT NULL,
			is_notified BOOLEAN NOT NULL DEFAULT false,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Version:     6,
		Description: "Index pending agendas",
		Script:      `CREATE INDEX IF NOT EXISTS idx_agendas_pending ON agendas (target_time) WHERE is_notified = false`,
	},
	{
		Version:     7,
		Description: "Create app_settings",
		Script: `CREATE TABLE IF NOT EXISTS app_settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Version:     8,
		Description: "Notify function for app_settings",
		Script: `CREATE OR REPLACE FUNCTION notify_app_settings_changed() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('app_settings_changed',
				json_build_object('key', NEW.key, 'value', NEW.value, 'ts', extract(epoch FROM now())::bigint)::text);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
	},
	{
		Version:     9,
		Description: "Trigger app_settings_changed",
		Script: `CREATE TRIGGER app_settings_changed
			AFTER INSERT OR UPDATE ON app_settings
			FOR EACH ROW EXECUTE FUNCTION notify_app_settings_changed()`,
	},
}

var sqliteMigrations = []darwin.Migration{
	{
		Version:     1,
		Description: "Create profiles",
		Script: `CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			username      TEXT,
			location_data TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		Version:     2,
		Description: "Create prayer_notifications ledger",
		Script: `CREATE TABLE IF NOT EXISTS prayer_notifications (
			id        TEXT PRIMARY KEY,
			user_id   TEXT NOT NULL,
			dedup_key TEXT NOT NULL,
			prayer    TEXT NOT NULL,
			sent_at   DATETIME NOT NULL,
			UNIQUE (user_id, dedup_key)
		)`,
	},
	{
		Version:     3,
		Description: "Index ledger by sent_at",
		Script:      `CREATE INDEX IF NOT EXISTS idx_prayer_notifications_sent_at ON prayer_notifications (sent_at)`,
	},
	{
		Version:     4,
		Description: "Create agendas",
		Script: `CREATE TABLE IF NOT EXISTS agendas (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			task_name   TEXT NOT NULL,
			target_time DATETIME NOT NULL,
			is_notified INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL
		)`,
	},
	{
		Version:     5,
		Description: "Index agendas by target_time",
		Script:      `CREATE INDEX IF NOT EXISTS idx_agendas_target ON agendas (is_notified, target_time)`,
	},
	{
		Version:     6,
		Description: "Create app_settings",
		Script: `CREATE TABLE IF NOT EXISTS app_settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	},
}
