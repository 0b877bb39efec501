// Package gradestore keeps the history of grade attempts seen on the portal, so that
// newly announced grades can be told apart from ones that were already reported.
package gradestore

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"campusdual-backend/internal/scrapers/campusdual"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Migrate creates the tables that do not exist yet.
func (s Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

// Attempt is a single grade attempt as it was first seen.
type Attempt struct {
	Module      string
	Name        string
	Grade       string
	Passed      campusdual.Tristate
	AssessedOn  string
	AnnouncedOn string
	Period      string
	FirstSeen   time.Time
}

type PushRequest struct {
	Time   time.Time
	User   string
	Grades []campusdual.Grade
}

const (
	createSnapshot = `insert into Snapshot(user, time, attempts) values (?, ?, ?) returning id`
	createAttempt  = `insert into Attempt(
	user, module, name, grade, passed, assessedOn, announcedOn, period, firstSeen, snapshotId
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict do nothing`
	getAttempts = `select module, name, grade, passed, assessedOn, announcedOn, period, firstSeen
from Attempt
where user = ?
order by firstSeen desc, id asc`
)

// Push records a snapshot of the user's grades and returns the attempts that were
// not part of any earlier snapshot, in the order they appear in the request.
func (s Store) Push(ctx context.Context, req PushRequest) ([]Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	count := 0
	for _, grade := range req.Grades {
		count += len(grade.Subgrades)
	}

	var snapshotId int64
	err = tx.QueryRowContext(ctx, createSnapshot, req.User, req.Time.Unix(), count).Scan(&snapshotId)
	if err != nil {
		return nil, err
	}

	var created []Attempt
	for _, grade := range req.Grades {
		for _, subgrade := range grade.Subgrades {
			attempt := Attempt{
				Module:      grade.Name,
				Name:        subgrade.Name,
				Grade:       subgrade.Grade,
				Passed:      subgrade.Passed,
				AssessedOn:  subgrade.AssessedOn,
				AnnouncedOn: subgrade.AnnouncedOn,
				Period:      subgrade.Period,
				FirstSeen:   time.Unix(req.Time.Unix(), 0),
			}
			res, err := tx.ExecContext(
				ctx, createAttempt,
				req.User,
				attempt.Module,
				attempt.Name,
				attempt.Grade,
				encodePassed(attempt.Passed),
				attempt.AssessedOn,
				attempt.AnnouncedOn,
				attempt.Period,
				req.Time.Unix(),
				snapshotId,
			)
			if err != nil {
				return nil, err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return nil, err
			}
			if affected > 0 {
				created = append(created, attempt)
			}
		}
	}

	return created, tx.Commit()
}

// Pull returns every attempt stored for the user, most recently seen first.
func (s Store) Pull(ctx context.Context, user string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, getAttempts, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var attempt Attempt
		var passed sql.NullBool
		var firstSeen int64
		err = rows.Scan(
			&attempt.Module,
			&attempt.Name,
			&attempt.Grade,
			&passed,
			&attempt.AssessedOn,
			&attempt.AnnouncedOn,
			&attempt.Period,
			&firstSeen,
		)
		if err != nil {
			return nil, err
		}
		attempt.Passed = decodePassed(passed)
		attempt.FirstSeen = time.Unix(firstSeen, 0)
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func encodePassed(passed campusdual.Tristate) sql.NullBool {
	value, ok := passed.Bool()
	return sql.NullBool{Bool: value, Valid: ok}
}

func decodePassed(passed sql.NullBool) campusdual.Tristate {
	if !passed.Valid {
		return campusdual.Unknown
	}
	if passed.Bool {
		return campusdual.True
	}
	return campusdual.False
}
