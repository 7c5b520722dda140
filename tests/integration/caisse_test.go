//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// TestCaisseLifecycle exercises the full session flow: open, sell against the
// session, check statistics, reconcile on close. Runs as one test because the
// steps share a single active session.
func TestCaisseLifecycle(t *testing.T) {
	// No session open yet.
	resp := doGet(t, "/api/caisse/sessions/active")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("active before open: expected 404, got %d", resp.StatusCode)
	}

	// Open with a 100.00 float.
	resp = doJSON(t, http.MethodPost, "/api/caisse/sessions", openSessionRequest{
		SessionName:   "Morning shift",
		OpeningAmount: 100,
		Description:   "register 1",
	}, testAPIKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open: expected 201, got %d", resp.StatusCode)
	}
	session := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	if session.Status != "active" {
		t.Fatalf("status: got %q, want active", session.Status)
	}
	if session.OpeningAmount != 100 {
		t.Fatalf("opening_amount: got %v, want 100", session.OpeningAmount)
	}

	// Opening a second session conflicts.
	resp = doJSON(t, http.MethodPost, "/api/caisse/sessions", openSessionRequest{
		SessionName:   "Afternoon shift",
		OpeningAmount: 50,
	}, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second open: expected 409, got %d", resp.StatusCode)
	}

	// A cash sale recorded against the session: 2x Espresso = 5.00 + 0.40 tax.
	resp = doJSON(t, http.MethodPost, "/api/sales", saleRequest{
		Items:           []saleItemRequest{{ProductID: "1", Quantity: 2}},
		PaymentMethod:   "cash",
		AmountPaid:      10,
		CaisseSessionID: session.ID,
	}, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("cash sale: expected 201, got %d", resp.StatusCode)
	}

	// A card sale against the same session: Latte 4.20 + 0.34 tax.
	resp = doJSON(t, http.MethodPost, "/api/sales", saleRequest{
		Items:           []saleItemRequest{{ProductID: "2", Quantity: 1}},
		PaymentMethod:   "card",
		CaisseSessionID: session.ID,
	}, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("card sale: expected 201, got %d", resp.StatusCode)
	}

	// Statistics count both sales but only cash revenue counts toward the drawer.
	resp = doGet(t, "/api/caisse/sessions/"+session.ID+"/statistics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics: expected 200, got %d", resp.StatusCode)
	}
	stats := decodeJSON[sessionStatsResponse](t, resp)
	resp.Body.Close()

	if stats.TransactionsCount != 2 {
		t.Errorf("transactions_count: got %d, want 2", stats.TransactionsCount)
	}
	if stats.CashRevenue != 5.4 {
		t.Errorf("cash_revenue: got %v, want 5.4", stats.CashRevenue)
	}
	if stats.TotalRevenue != 9.94 {
		t.Errorf("total_revenue: got %v, want 9.94", stats.TotalRevenue)
	}

	// Close counting 105.00: expected 100 + 5.40 = 105.40, shortage of 0.40.
	resp = doJSON(t, http.MethodPut, "/api/caisse/sessions/"+session.ID+"/close", closeSessionRequest{
		ClosingAmount: 105,
		Notes:         "end of shift",
	}, testAPIKey)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: expected 200, got %d", resp.StatusCode)
	}
	closed := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	if closed.Status != "closed" {
		t.Errorf("status: got %q, want closed", closed.Status)
	}
	if closed.ExpectedAmount == nil || *closed.ExpectedAmount != 105.4 {
		t.Errorf("expected_amount: got %v, want 105.4", closed.ExpectedAmount)
	}
	if closed.Difference == nil || *closed.Difference != -0.4 {
		t.Errorf("difference: got %v, want -0.4", closed.Difference)
	}

	// Closing again fails.
	resp = doJSON(t, http.MethodPut, "/api/caisse/sessions/"+session.ID+"/close", closeSessionRequest{
		ClosingAmount: 105,
	}, testAPIKey)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("double close: expected 400, got %d", resp.StatusCode)
	}

	// No active session remains.
	resp = doGet(t, "/api/caisse/sessions/active")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("active after close: expected 404, got %d", resp.StatusCode)
	}
}

func TestOpenSession_NoAuth(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/caisse/sessions", openSessionRequest{
		SessionName:   "Morning shift",
		OpeningAmount: 100,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestOpenSession_BlankName(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/caisse/sessions", openSessionRequest{
		SessionName:   "   ",
		OpeningAmount: 100,
	}, testAPIKey)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSessionStatistics_NotFound(t *testing.T) {
	resp := doGet(t, "/api/caisse/sessions/00000000-0000-0000-0000-000000000000/statistics")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
