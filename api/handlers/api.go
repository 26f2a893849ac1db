package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/api"
	"github.com/familybudget/family-budget-api/api/scheduler"
	"github.com/familybudget/family-budget-api/config"
	"github.com/familybudget/family-budget-api/databases"
	"github.com/familybudget/family-budget-api/invitations"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(api.RequestTimeout))

	invDB := databases.NewInvitationDatabase(a.dbHelper)
	famDB := databases.NewFamilyDatabase(a.dbHelper)
	memDB := databases.NewFamilyMembershipDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)
	profileDB := databases.NewProfileDatabase(a.dbHelper)
	adminDB := databases.NewAdminDatabase(a.dbHelper)

	hub := NewNotificationHub()
	notifier := invitations.MultiNotifier{
		invitations.NewEmailNotifier(),
		&HubNotifier{Hub: hub},
	}

	service := invitations.NewService(invDB, famDB, memDB, userDB, profileDB, a.dbHelper.Client(), notifier)
	queries := invitations.NewQueryService(invDB, famDB, memDB, userDB)

	inv := Invitation{Service: service, Queries: queries}
	fam := Family{DB: famDB, MDB: memDB}
	admin := Admin{ADB: adminDB}
	metrics := Metrics{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.HandleFunc("/ws/notifications", hub.ServeWS)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/family", api.Middleware(http.HandlerFunc(fam.CreateFamilyHandler))).Methods("POST")
	apiCreate.Handle("/family/{family_id}", api.Middleware(http.HandlerFunc(fam.FamilyHandler))).Methods("GET")
	apiCreate.Handle("/family/{family_id}/members", api.Middleware(http.HandlerFunc(fam.FamilyMembersHandler))).Methods("GET")
	apiCreate.Handle("/family/{family_id}/invitations", api.Middleware(http.HandlerFunc(inv.SendInvitationHandler))).Methods("POST")
	apiCreate.Handle("/family/{family_id}/invitations", api.Middleware(http.HandlerFunc(inv.ListSentInvitationsHandler))).Methods("GET")

	apiCreate.Handle("/invitations/pending", api.Middleware(http.HandlerFunc(inv.ListPendingInvitationsHandler))).Methods("GET")
	apiCreate.Handle("/invitations/token/{token}", api.Middleware(http.HandlerFunc(inv.InvitationByTokenHandler))).Methods("GET")
	apiCreate.Handle("/invitations/accept", api.Middleware(http.HandlerFunc(inv.AcceptInvitationByTokenHandler))).Methods("POST")
	apiCreate.Handle("/invitations/{invitation_id}/accept", api.Middleware(http.HandlerFunc(inv.AcceptInvitationHandler))).Methods("POST")
	apiCreate.Handle("/invitations/{invitation_id}/decline", api.Middleware(http.HandlerFunc(inv.DeclineInvitationHandler))).Methods("POST")
	apiCreate.Handle("/invitations/{invitation_id}/cancel", api.Middleware(http.HandlerFunc(inv.CancelInvitationHandler))).Methods("POST")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/invitations/cleanup", admin.AdminAuthMiddleware(http.HandlerFunc(inv.CleanupExpiredInvitationsHandler))).Methods("POST")
	apiCreate.Handle("/metrics", admin.AdminAuthMiddleware(http.HandlerFunc(metrics.MetricsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("connected to the database")

	a.dbHelper = databases.NewDatabase(&a.Config, client)

	invDB := databases.NewInvitationDatabase(a.dbHelper)
	lockDB := databases.NewSchedulerLockDatabase(a.dbHelper)
	famDB := databases.NewFamilyDatabase(a.dbHelper)
	memDB := databases.NewFamilyMembershipDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)
	profileDB := databases.NewProfileDatabase(a.dbHelper)

	cleanupService := invitations.NewService(invDB, famDB, memDB, userDB, profileDB, a.dbHelper.Client(), nil)
	a.Scheduler = scheduler.NewScheduler(cleanupService, lockDB)
	a.Scheduler.Start()

	a.Router = a.New()
	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"alive": true}`)
}
