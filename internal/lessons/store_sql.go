package lessons

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-lessons/internal/slide"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

// SQLStore runs against the schema of internal/db on sqlite or postgres.
// Every write commits together with its event_log row.
type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLStore(db *sql.DB, events *syncx.EventRepo) *SQLStore {
	if events == nil {
		events = syncx.NewEventRepo(db, "")
	}
	return &SQLStore{db: db, events: events}
}

// inTx runs fn and appends ev in one transaction.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error, ev func() (syncx.Event, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	e, err := ev()
	if err != nil {
		return err
	}
	if err := s.events.AppendTx(ctx, tx, e); err != nil {
		return err
	}
	return tx.Commit()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func viewExists(ctx context.Context, q queryRower, viewID int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM views WHERE id=$1`, viewID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("view %d: %w", viewID, ErrNotFound)
	}
	return err
}

func (s *SQLStore) PutView(ctx context.Context, v slide.View) error {
	sj, err := slide.MarshalSlides(v.Slides)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO views (id,name,quiz,module_id,slides_json,updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, quiz=EXCLUDED.quiz,
			  module_id=EXCLUDED.module_id, slides_json=EXCLUDED.slides_json, updated_at=EXCLUDED.updated_at`,
			v.ID, v.Name, v.Quiz, v.ModuleID, string(sj), time.Now().Unix())
		return err
	}, func() (syncx.Event, error) {
		return syncx.NewEvent(syncx.TypeViewPublished, fmt.Sprint(v.ID), map[string]any{"view_id": v.ID, "slides": len(v.Slides)})
	})
}

func (s *SQLStore) GetView(ctx context.Context, viewID int64) (slide.View, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,quiz,module_id,slides_json FROM views WHERE id=$1`, viewID)
	var v slide.View
	var sj string
	if err := row.Scan(&v.ID, &v.Name, &v.Quiz, &v.ModuleID, &sj); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return slide.View{}, fmt.Errorf("view %d: %w", viewID, ErrNotFound)
		}
		return slide.View{}, err
	}
	slides, err := slide.UnmarshalSlides([]byte(sj))
	if err != nil {
		return slide.View{}, fmt.Errorf("decode view %d: %w", viewID, err)
	}
	v.Slides = slides
	return v, nil
}

func (s *SQLStore) GetProgress(ctx context.Context, userID string, viewID int64) ([]bool, error) {
	var pj string
	err := s.db.QueryRowContext(ctx, `SELECT progress_json FROM progress WHERE user_id=$1 AND view_id=$2`,
		userID, viewID).Scan(&pj)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []bool
	if err := json.Unmarshal([]byte(pj), &out); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return out, nil
}

func (s *SQLStore) SaveProgress(ctx context.Context, userID string, viewID int64, progress []bool) error {
	pj, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := viewExists(ctx, tx, viewID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO progress (user_id,view_id,progress_json,updated_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (user_id, view_id) DO UPDATE SET progress_json=EXCLUDED.progress_json, updated_at=EXCLUDED.updated_at`,
			userID, viewID, string(pj), time.Now().Unix())
		return err
	}, func() (syncx.Event, error) {
		return syncx.NewEvent(syncx.TypeProgressSaved, syncx.Key(userID, viewID), map[string]any{"progress": progress})
	})
}

func (s *SQLStore) ListSubmissions(ctx context.Context, userID string, viewID int64) ([]slide.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,assessment_id,correct,revealed,answer_json
		FROM submissions WHERE user_id=$1 AND view_id=$2 ORDER BY id`, userID, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []slide.Submission{}
	for rows.Next() {
		sub := slide.Submission{ViewID: viewID}
		var aj string
		if err := rows.Scan(&sub.ID, &sub.AssessmentID, &sub.Correct, &sub.Revealed, &aj); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &sub.Answer); err != nil {
			return nil, fmt.Errorf("decode submission %d: %w", sub.ID, err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveSubmission(ctx context.Context, userID string, sub slide.Submission) (slide.Submission, error) {
	aj, err := answerJSON(sub.Answer)
	if err != nil {
		return slide.Submission{}, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := viewExists(ctx, tx, sub.ViewID); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `INSERT INTO submissions
			  (user_id,view_id,assessment_id,correct,revealed,answer_json,updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (user_id, view_id, assessment_id) DO UPDATE SET correct=EXCLUDED.correct,
			  revealed=EXCLUDED.revealed, answer_json=EXCLUDED.answer_json, updated_at=EXCLUDED.updated_at
			RETURNING id`,
			userID, sub.ViewID, sub.AssessmentID, sub.Correct, sub.Revealed, aj, time.Now().Unix()).Scan(&sub.ID)
	}, func() (syncx.Event, error) {
		return syncx.NewEvent(syncx.TypeSubmissionSaved, syncx.Key(userID, sub.ViewID), sub)
	})
	if err != nil {
		return slide.Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) UpdateSubmission(ctx context.Context, userID string, sub slide.Submission) (slide.Submission, error) {
	aj, err := answerJSON(sub.Answer)
	if err != nil {
		return slide.Submission{}, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE submissions SET correct=$1, revealed=$2, answer_json=$3, updated_at=$4
			WHERE id=$5 AND user_id=$6 AND view_id=$7 AND assessment_id=$8`,
			sub.Correct, sub.Revealed, aj, time.Now().Unix(), sub.ID, userID, sub.ViewID, sub.AssessmentID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("submission %d: %w", sub.ID, ErrNotFound)
		}
		return nil
	}, func() (syncx.Event, error) {
		return syncx.NewEvent(syncx.TypeSubmissionSaved, syncx.Key(userID, sub.ViewID), sub)
	})
	if err != nil {
		return slide.Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) RestartView(ctx context.Context, userID string, viewID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := viewExists(ctx, tx, viewID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM progress WHERE user_id=$1 AND view_id=$2`, userID, viewID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE user_id=$1 AND view_id=$2`, userID, viewID)
		return err
	}, func() (syncx.Event, error) {
		return syncx.NewEvent(syncx.TypeViewRestarted, syncx.Key(userID, viewID), map[string]any{"view_id": viewID})
	})
}

func answerJSON(a []slide.Answer) (string, error) {
	if a == nil {
		a = []slide.Answer{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode answer: %w", err)
	}
	return string(b), nil
}
