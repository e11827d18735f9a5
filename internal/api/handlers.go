package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/studyplan/internal/curriculum"
	"github.com/abhisek/studyplan/internal/progress"
	"github.com/abhisek/studyplan/internal/questionbank"
	"github.com/abhisek/studyplan/internal/quiz"
	"github.com/abhisek/studyplan/internal/stats"
	"github.com/abhisek/studyplan/internal/syncer"
	"github.com/abhisek/studyplan/internal/tracker"
)

type userResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon,omitempty"`
	Active      bool   `json:"active"`
}

// listUsers handles GET /api/users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	active := ""
	if ws, err := s.tracker.Active(); err == nil {
		active = ws.User.ID
	}
	users := s.tracker.Users()
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, DisplayName: u.DisplayName, Icon: u.Icon, Active: u.ID == active})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// selectUser handles POST /api/users/{id}/select
func (s *Server) selectUser(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Select(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.me(w, r)
}

// me handles GET /api/me
func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	ws, err := s.tracker.Active()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.tracker.Summary()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       userResponse{ID: ws.User.ID, DisplayName: ws.User.DisplayName, Icon: ws.User.Icon, Active: true},
		"curriculum": ws.Curriculum.Title(),
		"summary":    sum,
		"sync":       ws.Sync.Status(),
	})
}

type subjectResponse struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	ShortName  string       `json:"shortName,omitempty"`
	Priority   string       `json:"priority,omitempty"`
	TotalHours float64      `json:"totalHours,omitempty"`
	Counts     stats.Counts `json:"counts"`
}

type accuracyResponse struct {
	Correct  int  `json:"correct"`
	Total    int  `json:"total"`
	Accuracy *int `json:"accuracy"`
}

// stats handles GET /api/stats
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	sum, err := s.tracker.Summary()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subjects, err := s.tracker.Subjects()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.tracker.Analytics()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	subs := make([]subjectResponse, 0, len(subjects))
	for _, sc := range subjects {
		subs = append(subs, subjectResponse{
			ID:         sc.Subject.ID,
			Name:       sc.Subject.Name,
			ShortName:  sc.Subject.ShortName,
			Priority:   sc.Subject.Priority,
			TotalHours: sc.Subject.TotalHours,
			Counts:     sc.Counts,
		})
	}
	acc := make(map[questionbank.Difficulty]accuracyResponse)
	for _, d := range questionbank.Difficulties() {
		ar := accuracyResponse{Correct: a.CorrectByDifficulty[d], Total: a.TotalByDifficulty[d]}
		if pct, ok := a.Accuracy(d); ok {
			ar.Accuracy = &pct
		}
		acc[d] = ar
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":  sum,
		"pace":     stats.PaceMessage(sum.Pace),
		"subjects": subs,
		"analytics": map[string]any{
			"quizzesTaken":      a.QuizzesTaken,
			"questionsAnswered": a.QuestionsAnswered,
			"byDifficulty":      acc,
		},
	})
}

// grid handles GET /api/grid
func (s *Server) grid(w http.ResponseWriter, r *http.Request) {
	cells, err := s.tracker.Grid()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": cells})
}

type topicResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Day       int      `json:"day"`
	Subtopics []string `json:"subtopics,omitempty"`
	SubjectID string   `json:"subjectId"`
	UnitID    string   `json:"unitId"`
	Completed bool     `json:"completed"`
	Attempts  int      `json:"attempts"`
	BestScore *int     `json:"bestScore,omitempty"`
}

func toTopicResponse(v tracker.TopicView) topicResponse {
	out := topicResponse{
		ID:        v.Topic.ID,
		Title:     v.Topic.Title,
		Day:       v.Topic.Day,
		Subtopics: v.Topic.Subtopics,
		SubjectID: v.Subject.ID,
		UnitID:    v.Unit.ID,
		Completed: v.Completed,
		Attempts:  v.Attempts,
	}
	if v.HasScore {
		best := v.BestScore
		out.BestScore = &best
	}
	return out
}

// listTopics handles GET /api/topics?filter=&subject=&priority=
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := curriculum.ParseFilter(q.Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	views, err := s.tracker.Topics(curriculum.Query{
		Filter:    filter,
		SubjectID: q.Get("subject"),
		Priority:  q.Get("priority"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]topicResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toTopicResponse(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out, "total": len(out), "filter": filter})
}

// getTopic handles GET /api/topics/{id}
func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := s.tracker.Topic(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	attempts, err := s.tracker.Attempts(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topic": toTopicResponse(v), "attempts": attempts})
}

// toggleTopic handles POST /api/topics/{id}/toggle
func (s *Server) toggleTopic(w http.ResponseWriter, r *http.Request) {
	done, err := s.tracker.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completed": done})
}

type questionResponse struct {
	SessionID  string                  `json:"sessionId"`
	TopicID    string                  `json:"topicId"`
	Position   int                     `json:"position"`
	Total      int                     `json:"total"`
	Text       string                  `json:"text"`
	Difficulty questionbank.Difficulty `json:"difficulty"`
	Options    []string                `json:"options"`
	Correct    int                     `json:"correctSoFar"`
	Incorrect  int                     `json:"incorrectSoFar"`
	Answer     *answerResponse         `json:"answer,omitempty"`
}

type answerResponse struct {
	Selected    int    `json:"selected"`
	Correct     bool   `json:"correct"`
	CorrectText string `json:"correctText"`
}

func toQuestionResponse(sess *quiz.Session) (questionResponse, error) {
	st := sess.Snapshot()
	if st.Phase != quiz.PhaseInProgress {
		return questionResponse{}, quiz.ErrSessionFinished
	}
	out := questionResponse{
		SessionID:  sess.ID,
		TopicID:    sess.TopicID,
		Position:   st.Index + 1,
		Total:      st.Len,
		Text:       st.Item.Question.Text,
		Difficulty: st.Item.Question.Difficulty,
		Options:    st.Item.Options,
		Correct:    st.Correct,
		Incorrect:  st.Incorrect,
	}
	if a := st.Answer; a != nil {
		out.Answer = &answerResponse{Selected: a.Selected, Correct: a.Correct, CorrectText: a.CorrectText}
	}
	return out, nil
}

func (s *Server) writeQuestion(w http.ResponseWriter, r *http.Request, status int, sess *quiz.Session) {
	q, err := toQuestionResponse(sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, q)
}

// startQuiz handles POST /api/quiz {"topicId": "..."}
func (s *Server) startQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicID string `json:"topicId"`
	}
	if err := decodeBody(r, &req); err != nil || req.TopicID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "topicId is required"})
		return
	}
	sess, err := s.tracker.StartQuiz(req.TopicID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeQuestion(w, r, http.StatusCreated, sess)
}

// currentQuiz handles GET /api/quiz
func (s *Server) currentQuiz(w http.ResponseWriter, r *http.Request) {
	sess, err := s.tracker.CurrentQuiz()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeQuestion(w, r, http.StatusOK, sess)
}

// answerQuiz handles POST /api/quiz/answer {"option": n}
func (s *Server) answerQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Option *int `json:"option"`
	}
	if err := decodeBody(r, &req); err != nil || req.Option == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "option is required"})
		return
	}
	a, err := s.tracker.Answer(*req.Option)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Selected: a.Selected, Correct: a.Correct, CorrectText: a.CorrectText})
}

type outcomeResponse struct {
	Finished         bool                        `json:"finished"`
	TopicID          string                      `json:"topicId"`
	Score            int                         `json:"score"`
	Total            int                         `json:"total"`
	Passed           bool                        `json:"passed"`
	NewlyCompleted   bool                        `json:"newlyCompleted"`
	IncorrectAnswers []progress.IncorrectAnswer `json:"incorrectAnswers"`
}

// nextQuiz handles POST /api/quiz/next
func (s *Server) nextQuiz(w http.ResponseWriter, r *http.Request) {
	out, err := s.tracker.Next(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if out == nil {
		s.currentQuiz(w, r)
		return
	}
	wrong := out.Result.Attempt.IncorrectAnswers
	if wrong == nil {
		wrong = []progress.IncorrectAnswer{}
	}
	writeJSON(w, http.StatusOK, outcomeResponse{
		Finished:         true,
		TopicID:          out.Topic.Topic.ID,
		Score:            out.Result.Score,
		Total:            out.Result.Total,
		Passed:           out.Result.Passed,
		NewlyCompleted:   out.NewlyCompleted,
		IncorrectAnswers: wrong,
	})
}

// abandonQuiz handles DELETE /api/quiz
func (s *Server) abandonQuiz(w http.ResponseWriter, r *http.Request) {
	s.tracker.AbandonQuiz()
	w.WriteHeader(http.StatusNoContent)
}

type syncResponse struct {
	Status       syncer.Status `json:"status"`
	Configured   bool          `json:"configured"`
	RemoteHandle string        `json:"remoteHandle,omitempty"`
	LastSync     any           `json:"lastSync,omitempty"`
	AutoSync     bool          `json:"autoSync"`
	Error        string        `json:"error,omitempty"`
}

func (s *Server) syncResponse(w http.ResponseWriter, r *http.Request, rec *syncer.Reconciler, extra map[string]any) {
	cfg := rec.Config()
	resp := syncResponse{
		Status:       rec.Status(),
		Configured:   rec.Configured(),
		RemoteHandle: cfg.RemoteHandle,
		AutoSync:     cfg.AutoSync,
	}
	if cfg.LastSync != nil {
		resp.LastSync = cfg.LastSync
	}
	if err := rec.LastError(); err != nil {
		resp.Error = err.Error()
	}
	if extra == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	extra["sync"] = resp
	writeJSON(w, http.StatusOK, extra)
}

func (s *Server) withSync(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error)) {
	ws, err := s.tracker.Active()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	extra, err := fn(r.Context(), ws.Sync)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	s.syncResponse(w, r, ws.Sync, extra)
}

// syncStatus handles GET /api/sync
func (s *Server) syncStatus(w http.ResponseWriter, r *http.Request) {
	s.withSync(w, r, func(context.Context, *syncer.Reconciler) (map[string]any, error) {
		return nil, nil
	})
}

// syncPush handles POST /api/sync/push
func (s *Server) syncPush(w http.ResponseWriter, r *http.Request) {
	s.withSync(w, r, func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error) {
		return map[string]any{"pushed": rec.Push(ctx)}, nil
	})
}

// syncPull handles POST /api/sync/pull
func (s *Server) syncPull(w http.ResponseWriter, r *http.Request) {
	s.withSync(w, r, func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error) {
		return map[string]any{"adopted": rec.Reconcile(ctx)}, nil
	})
}

// syncConnect handles POST /api/sync/connect {"handle": "..."}
func (s *Server) syncConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle string `json:"handle"`
	}
	if err := decodeBody(r, &req); err != nil || req.Handle == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "handle is required"})
		return
	}
	s.withSync(w, r, func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error) {
		return nil, rec.Connect(ctx, req.Handle)
	})
}

// syncCreate handles POST /api/sync/create
func (s *Server) syncCreate(w http.ResponseWriter, r *http.Request) {
	s.withSync(w, r, func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error) {
		handle, err := rec.CreateRemote(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"handle": handle}, nil
	})
}

// syncAuto handles PUT /api/sync/auto {"enabled": bool}
func (s *Server) syncAuto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil || req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "enabled is required"})
		return
	}
	s.withSync(w, r, func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error) {
		return nil, rec.SetAutoSync(ctx, *req.Enabled)
	})
}

// syncDisconnect handles DELETE /api/sync
func (s *Server) syncDisconnect(w http.ResponseWriter, r *http.Request) {
	s.withSync(w, r, func(ctx context.Context, rec *syncer.Reconciler) (map[string]any, error) {
		return nil, rec.Disconnect(ctx)
	})
}

// export handles GET /api/export
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	e, err := s.tracker.Export()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, progress.ExportFileName(e.ExportDate)))
	writeJSON(w, http.StatusOK, e)
}

// importProgress handles POST /api/import
func (s *Server) importProgress(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	e, err := s.tracker.Import(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": len(e.Completion)})
}

// reset handles POST /api/reset
func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
