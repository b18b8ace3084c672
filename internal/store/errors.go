package store

import "errors"

// Sentinel errors returned by repository methods. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrNotFound is returned when a lookup by local or server id matches no
	// row.
	ErrNotFound = errors.New("record not found")

	// ErrConstraintViolation is returned when a write breaks a foreign key,
	// NOT NULL or CHECK constraint, e.g. inserting a comment whose post does
	// not exist.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrUniqueViolation is returned together with ErrConstraintViolation
	// when a write breaks a UNIQUE or PRIMARY KEY constraint, e.g. assigning
	// a server id that another row already holds.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrLocalSessionNotFound is returned when no session has been persisted.
	ErrLocalSessionNotFound = errors.New("local session not found")
)

// Low-level database operation errors.
var (
	// ErrBuildingSQLQuery is returned when squirrel fails to render a query.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the driver cannot start a
	// transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing fails. The
	// transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when an INSERT, UPDATE or DELETE
	// fails for a reason other than a constraint.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a result set fails.
	ErrScanningRows = errors.New("failed to scan rows")
)

// Development server errors.
var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrAliasAlreadyExists = errors.New("alias already taken")
	// ErrReplyDepth is returned when a reply targets another reply.
	ErrReplyDepth = errors.New("replies cannot be nested")
)
