// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	volume REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	profit REAL NOT NULL,
	margin_used REAL NOT NULL,
	free_margin REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
	run_id TEXT NOT NULL,
	episode INTEGER NOT NULL,
	step INTEGER NOT NULL,
	time DATETIME NOT NULL,
	trade_reward REAL NOT NULL,
	reward REAL NOT NULL,
	total_reward REAL NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	initial_balance REAL NOT NULL,
	branch TEXT NOT NULL,
	done INTEGER NOT NULL,
	PRIMARY KEY (run_id, episode, step)
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
