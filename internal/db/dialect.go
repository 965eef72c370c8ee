package db

// Dialect selects the DDL and upsert syntax. Queries are otherwise shared:
// both engines use ? placeholders and dates are bound as YYYY-MM-DD text.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite3"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		code VARCHAR(32) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		grade VARCHAR(16) NOT NULL,
		meal_plan VARCHAR(16) NOT NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_students_meal_plan (meal_plan),
		INDEX idx_students_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS validation_events (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_code VARCHAR(32) NOT NULL,
		meal_date DATE NOT NULL,
		recorded_at DATETIME(3) NOT NULL,
		meal_slot VARCHAR(8) NOT NULL,
		status VARCHAR(16) NOT NULL,
		CONSTRAINT uq_validation_events_student_day_slot UNIQUE (student_code, meal_date, meal_slot),
		INDEX idx_validation_events_day_slot (meal_date, meal_slot, status),
		INDEX idx_validation_events_recorded_at (recorded_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS roster_files (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		s3_path VARCHAR(1024) NOT NULL,
		status VARCHAR(16) NOT NULL,
		error_message TEXT NULL,
		row_count INT NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		code TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		grade TEXT NOT NULL,
		meal_plan TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_meal_plan ON students(meal_plan)`,
	`CREATE TABLE IF NOT EXISTS validation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_code TEXT NOT NULL,
		meal_date DATE NOT NULL,
		recorded_at DATETIME NOT NULL,
		meal_slot TEXT NOT NULL,
		status TEXT NOT NULL,
		CONSTRAINT uq_validation_events_student_day_slot UNIQUE (student_code, meal_date, meal_slot)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_validation_events_day_slot ON validation_events(meal_date, meal_slot, status)`,
	`CREATE INDEX IF NOT EXISTS idx_validation_events_recorded_at ON validation_events(recorded_at)`,
	`CREATE TABLE IF NOT EXISTS roster_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		s3_path TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT NULL,
		row_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

func (d Dialect) schema() []string {
	if d == DialectSQLite {
		return sqliteSchema
	}
	return mysqlSchema
}

func (d Dialect) upsertStudentQuery() string {
	if d == DialectSQLite {
		return `INSERT INTO students (code, name, grade, meal_plan, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(code) DO UPDATE SET
				name = excluded.name,
				grade = excluded.grade,
				meal_plan = excluded.meal_plan,
				updated_at = excluded.updated_at`
	}
	return `INSERT INTO students (code, name, grade, meal_plan, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			grade = VALUES(grade),
			meal_plan = VALUES(meal_plan),
			updated_at = VALUES(updated_at)`
}
