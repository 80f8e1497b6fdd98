package console

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nextgen-sip/console/internal/audit"
	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/render"
	"github.com/nextgen-sip/console/internal/view"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginTmpl.Execute(w, nil)
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	allowed, retryAfter := s.auth.CheckRateLimit(ip)
	if !allowed {
		s.logger.Warn("login rate-limited", "ip", ip, "retry_after", retryAfter.Round(time.Second).String())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		msg := fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", int(retryAfter.Minutes())+1)
		_ = loginTmpl.Execute(w, map[string]any{"Error": msg})
		return
	}

	code := r.FormValue("code")
	if !s.auth.ValidateCode(code) {
		if lockout := s.auth.RecordFailure(ip); lockout > 0 {
			s.logger.Warn("login lockout triggered", "ip", ip, "lockout_duration", lockout.String())
		} else {
			s.logger.Info("login failed", "ip", ip)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = loginTmpl.Execute(w, map[string]any{"Error": "Invalid access code. Check your terminal."})
		return
	}

	s.auth.RecordSuccess(ip)
	s.logger.Info("login success", "ip", ip)

	token, err := s.auth.CreateSession()
	if err != nil {
		s.logger.Error("creating session", "error", err)
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, "/console", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.auth.InvalidateSession(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/console/login", http.StatusFound)
}

func (s *Server) handleConsolePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := consoleTmpl.Execute(w, s.pageData()); err != nil {
		s.logger.Error("rendering console page", "error", err)
	}
}

// handleNavigate activates a page and returns the re-rendered main
// content; the browser swaps it in place. Unknown pages change nothing.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	page := view.Page(r.PathValue("page"))
	if !view.Known(page) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	res := s.nav.Navigate(page)
	if res != view.ResourceNone && s.refresher != nil {
		s.refresher.Refresh(r.Context(), res)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := mainTmpl.Execute(w, s.pageData()); err != nil {
		s.logger.Error("rendering page content", "error", err)
	}
}

func (s *Server) handleModalOpen(w http.ResponseWriter, r *http.Request) {
	s.modals.Open(r.PathValue("name"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModalClose(w http.ResponseWriter, r *http.Request) {
	s.modals.Close(r.PathValue("name"))
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateSubscriber registers a new account. Both id and username
// are required after trimming; the dialog stays open on any failure so
// the operator can correct and resubmit.
func (s *Server) handleCreateSubscriber(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.FormValue("id"))
	username := strings.TrimSpace(r.FormValue("username"))
	if id == "" || username == "" {
		http.Error(w, "id and username are required", http.StatusUnprocessableEntity)
		return
	}

	balance, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("balance")), 64)
	if err != nil {
		balance = 0
	}
	level, err := strconv.Atoi(r.FormValue("level"))
	if err != nil {
		level = carrier.LevelUser
	}
	tenant := strings.TrimSpace(r.FormValue("tenant_id"))
	if tenant == "" {
		tenant = "default"
	}

	sub := carrier.Subscriber{
		ID:       id,
		TenantID: tenant,
		Username: username,
		Password: r.FormValue("password"),
		Balance:  balance,
		Level:    level,
	}

	if _, err := s.mutator.CreateSubscriber(r.Context(), sub); err != nil {
		s.logger.Warn("create subscriber failed", "id", id, "error", err)
		s.recordAction(audit.ActionCreateSubscriber, id, username, audit.OutcomeFailed)
		http.Error(w, "carrier rejected the subscriber", http.StatusBadGateway)
		return
	}

	s.modals.Close(view.ModalAddSubscriber)
	s.refresh(r, view.ResourceSubscribers, view.ResourceStats)
	s.activity.Append(fmt.Sprintf("Subscriber created: %s (%s)", username, id))
	s.broadcastActivity()
	s.recordAction(audit.ActionCreateSubscriber, id, username, audit.OutcomeOK)
	w.WriteHeader(http.StatusCreated)
}

// handleDeleteSubscriber removes an account. The confirm=yes query
// parameter is the destructive-action guard; without it nothing happens.
// Snapshots are refreshed regardless of outcome so the table reflects
// whatever the carrier actually did, but the removal is only logged to
// the activity feed when the carrier accepted it.
func (s *Server) handleDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if r.URL.Query().Get("confirm") != "yes" {
		http.Error(w, "deletion requires confirm=yes", http.StatusBadRequest)
		return
	}

	err := s.mutator.DeleteSubscriber(r.Context(), id)
	s.refresh(r, view.ResourceSubscribers, view.ResourceStats)
	if err != nil {
		s.logger.Warn("delete subscriber failed", "id", id, "error", err)
		s.recordAction(audit.ActionDeleteSubscriber, id, "", audit.OutcomeFailed)
		http.Error(w, "carrier rejected the deletion", http.StatusBadGateway)
		return
	}

	s.activity.Append(fmt.Sprintf("Subscriber removed: %s", id))
	s.broadcastActivity()
	s.recordAction(audit.ActionDeleteSubscriber, id, "", audit.OutcomeOK)
	w.WriteHeader(http.StatusNoContent)
}

// handleAdjustBalance sets a subscriber balance. Any finite amount is
// accepted, negative included; the carrier owns the bounds.
func (s *Server) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	amount, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("amount")), 64)
	if err != nil {
		http.Error(w, "amount must be a number", http.StatusBadRequest)
		return
	}

	mErr := s.mutator.AdjustBalance(r.Context(), id, amount)
	s.modals.Close(view.ModalEditBalance)
	s.refresh(r, view.ResourceSubscribers)
	if mErr != nil {
		s.logger.Warn("balance adjustment failed", "id", id, "error", mErr)
		s.recordAction(audit.ActionAdjustBalance, id, render.Currency(amount), audit.OutcomeFailed)
		http.Error(w, "carrier rejected the adjustment", http.StatusBadGateway)
		return
	}

	s.activity.Append(fmt.Sprintf("Balance updated for %s: $%s", id, render.Currency(amount)))
	s.broadcastActivity()
	s.recordAction(audit.ActionAdjustBalance, id, render.Currency(amount), audit.OutcomeOK)
	w.WriteHeader(http.StatusNoContent)
}

// refresh re-fetches snapshots inline. Fragment pushes happen through
// the poller's sync callback, so successful refreshes reach browsers
// without a second broadcast path here.
func (s *Server) refresh(r *http.Request, resources ...view.Resource) {
	if s.refresher == nil {
		return
	}
	s.refresher.Refresh(r.Context(), resources...)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
