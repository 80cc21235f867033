package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Meetings     *MeetingHandler
	Participants *ParticipantHandler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Meetings != nil {
		mux.HandleFunc("/meetings", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Meetings.Create(w, r)
		})
		mux.HandleFunc("/meetings/", func(w http.ResponseWriter, r *http.Request) {
			routeMeeting(cfg, w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func routeMeeting(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/meetings/")
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}

	token := segments[0]
	r = r.WithContext(ContextWithMeetingToken(r.Context(), token))

	switch {
	case len(segments) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Meetings.Get(w, r)

	case len(segments) == 2 && segments[1] == "votes":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		cfg.Meetings.SubmitVote(w, r)

	case len(segments) == 3 && segments[1] == "votes":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		r = r.WithContext(ContextWithVoterUID(r.Context(), segments[2]))
		cfg.Meetings.ClearVotes(w, r)

	case len(segments) == 2 && segments[1] == "reset":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Meetings.Reset(w, r)

	case len(segments) == 2 && segments[1] == "window":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		cfg.Meetings.UpdateWindow(w, r)

	case len(segments) == 2 && segments[1] == "calendar.ics":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Meetings.Calendar(w, r)

	case len(segments) == 2 && segments[1] == "participants":
		if cfg.Participants == nil {
			http.NotFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			cfg.Participants.List(w, r)
		case http.MethodPost:
			cfg.Participants.Create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}

	case len(segments) == 4 && segments[1] == "participants" && segments[3] == "availability":
		if cfg.Participants == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		r = r.WithContext(ContextWithParticipantID(r.Context(), segments[2]))
		cfg.Participants.SubmitAvailability(w, r)

	case len(segments) == 2 && segments[1] == "availability":
		if cfg.Participants == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Participants.ListAvailability(w, r)

	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
