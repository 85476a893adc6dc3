package queries

const CreateTables = `CREATE TABLE IF NOT EXISTS submission (
	id         BIGSERIAL PRIMARY KEY,
	kind       TEXT        NOT NULL,
	caller     TEXT        NOT NULL,
	room_id    BIGINT      NOT NULL DEFAULT 0,
	check_in   BIGINT      NOT NULL DEFAULT 0,
	check_out  BIGINT      NOT NULL DEFAULT 0,
	payment    BIGINT      NOT NULL DEFAULT 0,
	status     TEXT        NOT NULL,
	tx_hash    TEXT        NOT NULL DEFAULT '',
	failure    TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS submission_caller_idx ON submission (caller);`

const InsertSubmission = `INSERT INTO submission (kind, caller, room_id, check_in, check_out, payment, status, created_at, updated_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`

const FinishSubmission = `UPDATE submission SET status = $1, tx_hash = $2, failure = $3, updated_at = $4 WHERE id = $5`

const SubmissionsByCaller = `SELECT id, kind, caller, room_id, check_in, check_out, payment, status, tx_hash, failure, created_at, updated_at
	FROM submission WHERE caller = $1 ORDER BY id DESC`
