package repository

// schemaSQL holds the extract tables, the statistics output and the run
// log. Dates are ISO text.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    institution      TEXT NOT NULL,
    term             INTEGER NOT NULL,
    session          TEXT NOT NULL,
    early_enrollment TEXT NOT NULL,
    open_enrollment  TEXT NOT NULL,
    last_waitlist    TEXT NOT NULL,
    end_enrollment   TEXT NOT NULL,
    session_start    TEXT NOT NULL,
    census_date      TEXT NOT NULL,
    sixty_percent    TEXT NOT NULL,
    session_end      TEXT NOT NULL,
    PRIMARY KEY (institution, term, session)
);

CREATE TABLE IF NOT EXISTS admissions (
    student_id       TEXT NOT NULL,
    institution      TEXT NOT NULL,
    admit_term       INTEGER NOT NULL,
    requirement_term INTEGER NOT NULL,
    program_action   TEXT NOT NULL,
    action_reason    TEXT NOT NULL,
    action_date      TEXT NOT NULL,
    effective_date   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transfers_applied (
    student_id        TEXT NOT NULL,
    dst_institution   TEXT NOT NULL,
    articulation_term INTEGER NOT NULL,
    posted_date       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS registrations (
    student_id  TEXT NOT NULL,
    institution TEXT NOT NULL,
    term        INTEGER NOT NULL,
    add_date    TEXT NOT NULL,
    drop_date   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS statistics (
    institution TEXT NOT NULL,
    admit_term  INTEGER NOT NULL,
    earlier     TEXT NOT NULL,
    later       TEXT NOT NULL,
    n           INTEGER NOT NULL,
    median      REAL,
    siqr        REAL,
    mean        REAL,
    std_dev     REAL,
    conf_95     REAL,
    mode        REAL,
    min         REAL,
    max         REAL,
    q1          REAL,
    q2          REAL,
    q3          REAL,
    PRIMARY KEY (institution, admit_term, earlier, later)
);

CREATE TABLE IF NOT EXISTS statistics_dates (
    files_date TEXT NOT NULL,
    run_date   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    cohorts     INTEGER NOT NULL,
    skipped     INTEGER NOT NULL,
    error       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_admissions_inst_term ON admissions(institution, admit_term);
CREATE INDEX IF NOT EXISTS idx_transfers_inst_term ON transfers_applied(dst_institution, articulation_term);
CREATE INDEX IF NOT EXISTS idx_registrations_inst_term ON registrations(institution, term);
`
