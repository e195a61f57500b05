package queue

import (
	"context"
	"errors"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// Session is one transaction on a connection. It is committed or rolled back
// exactly once and never reused.
type Session struct {
	core.Tx
	done bool
}

// Begin opens a session on conn. A failure to begin means the connection is
// unusable and is reported as a *core.ConnectionError.
func Begin(ctx context.Context, conn core.Conn) (*Session, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, &core.ConnectionError{Err: err}
	}
	return &Session{Tx: tx}, nil
}

// Commit commits the transaction. A second resolution returns
// core.ErrSessionDone.
func (s *Session) Commit() error {
	if s.done {
		return core.ErrSessionDone
	}
	s.done = true
	return s.Tx.Commit()
}

// Rollback rolls the transaction back. A second resolution returns
// core.ErrSessionDone.
func (s *Session) Rollback() error {
	if s.done {
		return core.ErrSessionDone
	}
	s.done = true
	return s.Tx.Rollback()
}

// Resolve commits when err is nil and rolls back otherwise. On a clean
// rollback err is returned as is; a failed rollback is joined to it as a
// *core.StoreError with Op "rollback".
func (s *Session) Resolve(err error) error {
	if err == nil {
		return s.Commit()
	}
	if rbErr := s.Rollback(); rbErr != nil {
		return errors.Join(err, &core.StoreError{Op: "rollback", Err: rbErr})
	}
	return err
}
