package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "wallet-ledger-service/internal/adapter/http/handler"
	redisStorage "wallet-ledger-service/internal/adapter/storage/redis"
	"wallet-ledger-service/internal/service"
	"wallet-ledger-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack over in-memory storage:
// real HTTP layer, middleware, handlers and engine, with miniredis
// backing the rate limiter and the concurrency-faithful in-memory repos
// backing the ledger.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	client *goredis.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	store := newMemStore()
	walletRepo := newInMemoryWalletRepo(store)
	txRepo := newInMemoryTransactionRepo(store)
	transactor := newInMemoryTransactor()

	log := logger.New("error", false)
	walletSvc := service.NewWalletService(
		walletRepo,
		txRepo,
		transactor,
		service.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server: server,
		redis:  mr,
		client: rdb,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.client.Close()
	a.redis.Close()
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
}

func (a *testApp) do(t *testing.T, method, path string, body string) (int, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) createWallet(t *testing.T, ownerID string) string {
	t.Helper()
	status, env := a.do(t, "POST", "/api/v1/wallets", fmt.Sprintf(`{"owner_id":%q}`, ownerID))
	require.Equal(t, http.StatusCreated, status)

	var wallet struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &wallet))
	require.Equal(t, "0.00", wallet.Balance)
	return wallet.ID
}

func (a *testApp) balance(t *testing.T, walletID string) string {
	t.Helper()
	status, env := a.do(t, "GET", "/api/v1/wallets/"+walletID+"/balance", "")
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result.Balance
}

// TestLedgerScenario walks a wallet through the full operation set and
// checks every intermediate balance and the resulting audit trail.
func TestLedgerScenario(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletA := app.createWallet(t, "alice")
	assert.Equal(t, "0.00", app.balance(t, walletA))

	// Deposit 100.00
	status, env := app.do(t, "POST", "/api/v1/wallets/"+walletA+"/deposit", `{"amount":"100.00"}`)
	require.Equal(t, http.StatusOK, status)
	var bal struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bal))
	assert.Equal(t, "100.00", bal.Balance)

	// Withdraw 30.00
	status, env = app.do(t, "POST", "/api/v1/wallets/"+walletA+"/withdraw", `{"amount":"30.00"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &bal))
	assert.Equal(t, "70.00", bal.Balance)

	// Withdrawing more than the balance fails and changes nothing.
	status, env = app.do(t, "POST", "/api/v1/wallets/"+walletA+"/withdraw", `{"amount":"1000.00"}`)
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "WAL_003", env.ErrorCode)
	assert.Equal(t, "70.00", app.balance(t, walletA))

	// Transfer 30.00 to a second wallet.
	walletB := app.createWallet(t, "bob")
	body := fmt.Sprintf(`{"source_wallet_id":%q,"target_wallet_id":%q,"amount":"30.00"}`, walletA, walletB)
	status, _ = app.do(t, "POST", "/api/v1/transfers", body)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "40.00", app.balance(t, walletA))
	assert.Equal(t, "30.00", app.balance(t, walletB))

	// Audit trail of wallet A, newest first.
	status, env = app.do(t, "GET", "/api/v1/wallets/"+walletA+"/transactions", "")
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Items []struct {
			Type            string  `json:"type"`
			Amount          string  `json:"amount"`
			BalanceAfter    string  `json:"balance_after"`
			RelatedWalletID *string `json:"related_wallet_id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "TRANSFER_OUT", list.Items[0].Type)
	require.NotNil(t, list.Items[0].RelatedWalletID)
	assert.Equal(t, walletB, *list.Items[0].RelatedWalletID)
	assert.Equal(t, "40.00", list.Items[0].BalanceAfter)
	assert.Equal(t, "WITHDRAW", list.Items[1].Type)
	assert.Equal(t, "DEPOSIT", list.Items[2].Type)

	// The failed withdrawal left no audit record.
	for _, item := range list.Items {
		assert.NotEqual(t, "1000.00", item.Amount)
	}
}

// TestHistoricalBalance verifies point-in-time reconstruction from the
// audit trail, including the pre-creation and no-transactions cases.
func TestHistoricalBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	beforeCreation := time.Now().UTC()
	time.Sleep(20 * time.Millisecond)

	walletID := app.createWallet(t, "carol")

	time.Sleep(20 * time.Millisecond)
	afterCreation := time.Now().UTC()
	time.Sleep(20 * time.Millisecond)

	status, _ := app.do(t, "POST", "/api/v1/wallets/"+walletID+"/deposit", `{"amount":"100.00"}`)
	require.Equal(t, http.StatusOK, status)

	time.Sleep(20 * time.Millisecond)
	afterDeposit := time.Now().UTC()
	time.Sleep(20 * time.Millisecond)

	status, _ = app.do(t, "POST", "/api/v1/wallets/"+walletID+"/withdraw", `{"amount":"30.00"}`)
	require.Equal(t, http.StatusOK, status)

	query := func(ts time.Time) (int, envelope) {
		path := "/api/v1/wallets/" + walletID + "/balance/history?timestamp=" + ts.Format(time.RFC3339Nano)
		return app.do(t, "GET", path, "")
	}

	var result struct {
		Balance string `json:"balance"`
	}

	// Before the wallet existed: zero.
	status, env := query(beforeCreation)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "0.00", result.Balance)

	// After creation but before any transaction: zero.
	status, env = query(afterCreation)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "0.00", result.Balance)

	// Between deposit and withdrawal: the deposit's balance.
	status, env = query(afterDeposit)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "100.00", result.Balance)

	// Now: the live balance.
	status, env = query(time.Now().UTC())
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "70.00", result.Balance)

	// The future is rejected.
	status, env = query(time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "WAL_005", env.ErrorCode)

	// An unknown wallet is not found even for past timestamps.
	status, env = app.do(t, "GET",
		"/api/v1/wallets/7b7e5c15-8b5a-4f0e-9d1c-0a9c0e5d3f11/balance/history?timestamp="+
			beforeCreation.Format(time.RFC3339Nano), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "WAL_001", env.ErrorCode)
}

// TestAmountValidation exercises the minimum-unit rule end to end.
func TestAmountValidation(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "dave")

	for _, amount := range []string{"0.00", "-5.00", "0.004", "abc"} {
		status, env := app.do(t, "POST", "/api/v1/wallets/"+walletID+"/deposit",
			fmt.Sprintf(`{"amount":%q}`, amount))
		assert.Equal(t, http.StatusBadRequest, status, "amount %q should be rejected", amount)
		assert.Equal(t, "WAL_002", env.ErrorCode, "amount %q", amount)
	}

	// 0.005 rounds half up to the minimum unit and is accepted.
	status, env := app.do(t, "POST", "/api/v1/wallets/"+walletID+"/deposit", `{"amount":"0.005"}`)
	require.Equal(t, http.StatusOK, status)
	var bal struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bal))
	assert.Equal(t, "0.01", bal.Balance)
}

// TestRateLimitHeaders confirms the limiter is wired into the route groups.
func TestRateLimitHeaders(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "erin")

	req, err := http.NewRequest("GET", app.server.URL+"/api/v1/wallets/"+walletID+"/balance", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
}
