package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Requests     *RequestHandler
	Appointments *AppointmentHandler
	Events       *EventsHandler
	JWTSecret    string
	Logger       *slog.Logger
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		newResponder(cfg.Logger).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(RequireBearer(cfg.JWTSecret, cfg.Logger))

	if cfg.Requests != nil {
		api.HandleFunc("/requests", cfg.Requests.Submit).Methods(http.MethodPost)
		api.HandleFunc("/requests/pending", cfg.Requests.ListPending).Methods(http.MethodGet)
		api.HandleFunc("/requests/sent", cfg.Requests.ListSent).Methods(http.MethodGet)
		api.HandleFunc("/requests/{id}", cfg.Requests.Get).Methods(http.MethodGet)
		api.HandleFunc("/requests/{id}", cfg.Requests.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/requests/{id}/response", cfg.Requests.Respond).Methods(http.MethodPost)
	}

	if cfg.Appointments != nil {
		api.HandleFunc("/appointments", cfg.Appointments.List).Methods(http.MethodGet)
		api.HandleFunc("/appointments", cfg.Appointments.Create).Methods(http.MethodPost)
		api.HandleFunc("/appointments/upcoming", cfg.Appointments.ListUpcoming).Methods(http.MethodGet)
		api.HandleFunc("/appointments/{id}", cfg.Appointments.Get).Methods(http.MethodGet)
		api.HandleFunc("/appointments/{id}", cfg.Appointments.Update).Methods(http.MethodPatch)
		api.HandleFunc("/appointments/{id}", cfg.Appointments.Remove).Methods(http.MethodDelete)
		api.HandleFunc("/appointments/{id}/reschedule", cfg.Appointments.Reschedule).Methods(http.MethodPost)
	}

	if cfg.Events != nil {
		api.HandleFunc("/events", cfg.Events.Stream).Methods(http.MethodGet)
	}

	var handler http.Handler = router
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
