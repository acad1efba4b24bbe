package web

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"filmclub/internal/application/orchestrators"
	"filmclub/internal/application/projections"
	"filmclub/internal/domain/week"
)

type genreView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// handleListGenres lists the active genre catalog.
func handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := stores.GenreStore.ListActive(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]genreView, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreView{ID: g.ID, Name: g.Name, Active: g.Active})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleWeekOverview shows a week from the caller's point of view.
func handleWeekOverview(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	overview, err := projections.QueryGetWeekOverview(r.Context(), projections.GetWeekOverviewQuery{
		Date:     date,
		ViewerID: currentSession(r).AccountID,
		Quorum:   options.Quorum,
	}, projections.GetWeekOverviewDeps{
		WeekStore:       stores.WeekStore,
		NominationStore: stores.NominationStore,
		BallotStore:     stores.BallotStore,
		AccountStore:    stores.AccountStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

type weekView struct {
	Date                string     `json:"date"`
	Phase               week.Phase `json:"phase"`
	Genre               string     `json:"genre,omitempty"`
	WinningNominationID string     `json:"winningNominationId,omitempty"`
	WinningScore        int        `json:"winningScore,omitempty"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func toWeekView(wk week.Week) weekView {
	return weekView{
		Date:                wk.Date,
		Phase:               wk.Phase,
		Genre:               wk.Genre,
		WinningNominationID: wk.WinningNominationID,
		WinningScore:        wk.WinningScore,
		UpdatedAt:           wk.UpdatedAt,
	}
}

type setGenreRequest struct {
	Genre   string `json:"genre"`
	GenreID string `json:"genreId"`
	Random  bool   `json:"random"`
}

// handleSetGenre moves a week from planning to nomination.
func handleSetGenre(w http.ResponseWriter, r *http.Request) {
	var req setGenreRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	wk, err := orchestrators.ExecuteSetGenre(r.Context(), orchestrators.SetGenreInput{
		Date:    r.PathValue("date"),
		Genre:   req.Genre,
		GenreID: req.GenreID,
		Random:  req.Random,
		ActorID: currentSession(r).AccountID,
	}, orchestrators.SetGenreDeps{
		WeekStore:  stores.WeekStore,
		GenreStore: stores.GenreStore,
		Announcer:  options.Announcer,
		Now:        timeNow,
		Intn:       rand.IntN,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekView(wk))
}

type proposeRequest struct {
	Title       string `json:"title"`
	Year        int    `json:"year"`
	ExternalRef string `json:"externalRef"`
	PosterRef   string `json:"posterRef"`
}

type nominationView struct {
	ID          string    `json:"id"`
	WeekDate    string    `json:"weekDate"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	ExternalRef string    `json:"externalRef,omitempty"`
	PosterRef   string    `json:"posterRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// handleProposeNomination records the caller's film for a week.
func handleProposeNomination(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	n, err := orchestrators.ExecuteProposeNomination(r.Context(), orchestrators.ProposeNominationInput{
		Date:        r.PathValue("date"),
		MemberID:    currentSession(r).AccountID,
		Title:       req.Title,
		Year:        req.Year,
		ExternalRef: req.ExternalRef,
		PosterRef:   req.PosterRef,
	}, orchestrators.ProposeNominationDeps{
		NominationStore: stores.NominationStore,
		Films:           options.Films,
		GenerateID:      generateID,
		Now:             timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nominationView{
		ID:          n.ID,
		WeekDate:    n.WeekDate,
		Title:       n.Film.Title,
		Year:        n.Film.Year,
		ExternalRef: n.Film.ExternalRef,
		PosterRef:   n.Film.PosterRef,
		CreatedAt:   n.CreatedAt,
	})
}

// handleRetractNomination withdraws a nomination. Admins may retract any.
func handleRetractNomination(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	err := orchestrators.ExecuteRetractNomination(r.Context(), orchestrators.RetractNominationInput{
		NominationID: r.PathValue("id"),
		ActorID:      sess.AccountID,
		ActorIsAdmin: sess.IsAdmin(),
	}, orchestrators.RetractNominationDeps{NominationStore: stores.NominationStore})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenVoting moves a week from nomination to voting.
func handleOpenVoting(w http.ResponseWriter, r *http.Request) {
	wk, err := orchestrators.ExecuteOpenVoting(r.Context(), orchestrators.OpenVotingInput{
		Date:    r.PathValue("date"),
		ActorID: currentSession(r).AccountID,
	}, orchestrators.OpenVotingDeps{
		WeekStore:       stores.WeekStore,
		NominationStore: stores.NominationStore,
		Announcer:       options.Announcer,
		Quorum:          options.Quorum,
		Now:             timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekView(wk))
}

type ballotRequest struct {
	Ranking map[string]int `json:"ranking"`
	Order   []string       `json:"order"`
}

type ballotView struct {
	ID        string         `json:"id"`
	WeekDate  string         `json:"weekDate"`
	Ranking   map[string]int `json:"ranking"`
	CreatedAt time.Time      `json:"createdAt"`
}

// handleSubmitBallot casts the caller's ranked ballot.
func handleSubmitBallot(w http.ResponseWriter, r *http.Request) {
	var req ballotRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	b, err := orchestrators.ExecuteSubmitBallot(r.Context(), orchestrators.SubmitBallotInput{
		Date:     r.PathValue("date"),
		MemberID: currentSession(r).AccountID,
		Ranking:  req.Ranking,
		Order:    req.Order,
	}, orchestrators.SubmitBallotDeps{
		BallotStore: stores.BallotStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ballotView{ID: b.ID, WeekDate: b.WeekDate, Ranking: b.Ranking, CreatedAt: b.CreatedAt})
}

// handleCalculateResults tallies the ballots and completes the week.
func handleCalculateResults(w http.ResponseWriter, r *http.Request) {
	if _, err := orchestrators.ExecuteCalculateResults(r.Context(), orchestrators.CalculateResultsInput{
		Date:    r.PathValue("date"),
		ActorID: currentSession(r).AccountID,
	}, orchestrators.CalculateResultsDeps{
		WeekStore:       stores.WeekStore,
		NominationStore: stores.NominationStore,
		Announcer:       options.Announcer,
		Now:             timeNow,
	}); err != nil {
		writeError(w, err)
		return
	}
	handleWeekResults(w, r)
}

// handleWeekResults shows the breakdown of a completed week.
func handleWeekResults(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := projections.QueryGetWeekResults(r.Context(), projections.GetWeekResultsQuery{Date: date},
		projections.GetWeekResultsDeps{
			WeekStore:       stores.WeekStore,
			NominationStore: stores.NominationStore,
			BallotStore:     stores.BallotStore,
			AccountStore:    stores.AccountStore,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// handleHistory lists completed weeks, newest first.
func handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := projections.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, orchestrators.ErrInvalidInput)
			return
		}
		limit = n
	}
	history, err := projections.QueryGetHistory(r.Context(), limit, projections.GetHistoryDeps{
		WeekStore:       stores.WeekStore,
		NominationStore: stores.NominationStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
