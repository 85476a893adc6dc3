package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"roomShare/internal/apperrors"
	"roomShare/internal/handlers"
	"roomShare/internal/models"
	"roomShare/internal/selection"
	"roomShare/internal/storage/mocks"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
)

var settings = handlers.Settings{
	JWTKey:          "test-key",
	SessionTTL:      time.Hour,
	SubmitLockTTL:   time.Minute,
	ContractAddress: "0x4662aab3EC1d45B0051f9D2E974992cEB2c1E1eE",
	ExchangeRate:    1600,
	ReferenceYear:   2022,
}

var loft = models.Room{Id: 0, Name: "Loft", Location: "Seoul", IsActive: true, Price: 5, Owner: bob}
var cabin = models.Room{Id: 1, Name: "Cabin", Location: "Busan", IsActive: false, Price: 3, Owner: bob}

type fixture struct {
	registry *mocks.Registry
	cache    *mocks.Cache
	journal  *mocks.Journal
	handler  http.Handler
}

func newFixture() *fixture {
	f := &fixture{registry: new(mocks.Registry), cache: new(mocks.Cache), journal: new(mocks.Journal)}
	f.handler = New(f.registry, f.cache, f.journal, settings, []string{`*`}, zap.NewNop())
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.registry.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.journal.AssertExpectations(t)
}

// performLogin opens a session for caller the way LoginHandler does and
// returns the Authorization header value.
func (f *fixture) performLogin(t *testing.T, caller string) string {
	session := models.Session{Id: uuid.NewString(), Caller: caller, CreatedAt: time.Now().UTC()}

	token, err := handlers.IssueToken(session, settings.JWTKey, settings.SessionTTL)
	require.NoError(t, err)

	f.cache.On("GetSession", session.Id).Return(session, nil)

	return "Bearer " + token
}

func (f *fixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestAllRoomsHandler(t *testing.T) {
	testCases := []struct {
		name           string
		expectedRooms  []models.Room
		authorized     bool
		expectCacheHit bool
		registryErr    error
		expectedCode   int
	}{
		{
			name:          "Rooms from the contract",
			expectedRooms: []models.Room{loft, cabin},
			authorized:    true,
			expectedCode:  http.StatusOK,
		},
		{
			name:           "Rooms from the cache",
			expectedRooms:  []models.Room{loft},
			authorized:     true,
			expectCacheHit: true,
			expectedCode:   http.StatusOK,
		},
		{
			name:          "Empty registry",
			expectedRooms: []models.Room{},
			authorized:    true,
			expectedCode:  http.StatusOK,
		},
		{
			name:         "Unauthorized access",
			authorized:   false,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Node unreachable",
			authorized:   true,
			registryErr:  fmt.Errorf("getRoomNum: %w: connection refused", apperrors.ErrConnection),
			expectedCode: http.StatusBadGateway,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()

			var token string
			if tc.authorized {
				token = f.performLogin(t, alice)

				if tc.expectCacheHit {
					cached, _ := json.Marshal(tc.expectedRooms)
					f.cache.On("GetRooms").Return(cached, nil).Once()
				} else {
					f.cache.On("GetRooms").Return(nil, redis.Nil).Once()
					f.registry.On("GetAllRooms").Return(tc.expectedRooms, tc.registryErr).Once()
					if tc.registryErr == nil {
						f.cache.On("PutRooms", tc.expectedRooms).Return(nil).Once()
					}
				}
			}

			rr := f.do(t, "GET", "/rooms", token, nil)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				var rooms []models.Room
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rooms))
				assert.Equal(t, tc.expectedRooms, rooms)
			}
			if tc.registryErr != nil {
				assert.Equal(t, "connection", decodeError(t, rr)["error"])
				assert.Equal(t, "3", rr.Header().Get("Retry-After"))
			}

			f.assertExpectations(t)
		})
	}
}

func TestRoomsHTML(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	f.cache.On("GetRooms").Return(nil, redis.Nil).Once()
	f.registry.On("GetAllRooms").Return([]models.Room{loft, cabin}, nil).Once()
	f.cache.On("PutRooms", []models.Room{loft, cabin}).Return(nil).Once()

	rr := f.do(t, "GET", "/rooms?format=html", token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, 2, strings.Count(rr.Body.String(), "<tr>"))
	f.assertExpectations(t)
}

func TestRoomOptionsEmptyRegistry(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	f.cache.On("GetRooms").Return(nil, redis.Nil).Once()
	f.registry.On("GetAllRooms").Return([]models.Room{}, nil).Once()
	f.cache.On("PutRooms", []models.Room{}).Return(nil).Once()

	rr := f.do(t, "GET", "/rooms/options?format=html", token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, strings.Count(rr.Body.String(), "<option"))
	assert.Contains(t, rr.Body.String(), "- Rooms Available -")
	f.assertExpectations(t)
}

func TestRoomHistoryHandler(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	history := []models.Rent{{Id: 2, RoomId: 1, CheckInDate: 40, CheckOutDate: 42, Renter: bob}}
	f.registry.On("GetRoomHistory", int64(1)).Return(history, nil).Once()

	rr := f.do(t, "GET", "/rooms/1/history?format=html", token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<td>2</td><td>40</td><td>42</td><td>0x2222222222...</td>")
	f.assertExpectations(t)
}

func TestRoomHandler(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	f.registry.On("GetRoom", int64(0)).Return(loft, nil).Once()

	rr := f.do(t, "GET", "/rooms/0", token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var room models.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, loft, room)

	assert.Equal(t, http.StatusNotFound, f.do(t, "GET", "/rooms/abc", token, nil).Code)
	f.assertExpectations(t)
}

func TestMyRentsHandler(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	rents := []models.Rent{{Id: 0, RoomId: 0, CheckInDate: 15, CheckOutDate: 18, Renter: alice}}
	f.registry.On("GetMyRents", alice).Return(rents, nil).Twice()

	rr := f.do(t, "GET", "/rents/mine?format=html", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<td>Sat Jan 15 2022</td><td>Tue Jan 18 2022</td>")

	rr = f.do(t, "GET", "/rents/mine", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.Rent
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, rents, got)

	f.assertExpectations(t)
}

func TestLoginHandler(t *testing.T) {
	testCases := []struct {
		name         string
		account      int
		expectedCode int
	}{
		{"First account", 0, http.StatusOK},
		{"Second account", 1, http.StatusOK},
		{"Unknown account", 2, http.StatusBadRequest},
		{"Negative account", -1, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()

			f.registry.On("Accounts").Return([]string{alice, bob}, nil).Once()
			if tc.expectedCode == http.StatusOK {
				f.cache.On("PutSession", mock.AnythingOfType("models.Session"), settings.SessionTTL).Return(nil).Once()
			}

			rr := f.do(t, "POST", "/login", "", models.LoginRequest{Account: tc.account})
			assert.Equal(t, tc.expectedCode, rr.Code)

			if tc.expectedCode == http.StatusOK {
				var token models.AuthorizationToken
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &token))
				assert.NotEmpty(t, token.Token)

				session := f.cache.Calls[0].Arguments.Get(0).(models.Session)
				assert.Equal(t, []string{alice, bob}[tc.account], session.Caller)
			}

			f.assertExpectations(t)
		})
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture()

	session := models.Session{Id: uuid.NewString(), Caller: alice, CreatedAt: time.Now().UTC()}
	token, err := handlers.IssueToken(session, settings.JWTKey, settings.SessionTTL)
	require.NoError(t, err)

	f.cache.On("GetSession", session.Id).Return(session, nil).Once()
	f.cache.On("DeleteSession", session.Id).Return(nil).Once()
	f.cache.On("GetSession", session.Id).Return(models.Session{}, errors.New("session not found")).Once()

	assert.Equal(t, http.StatusNoContent, f.do(t, "POST", "/logout", "Bearer "+token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/account", "Bearer "+token, nil).Code)
	f.assertExpectations(t)
}

func TestForgedToken(t *testing.T) {
	f := newFixture()

	session := models.Session{Id: uuid.NewString(), Caller: alice, CreatedAt: time.Now().UTC()}
	token, err := handlers.IssueToken(session, "other-key", settings.SessionTTL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/account", "Bearer "+token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/account", token, nil).Code)
	f.cache.AssertNotCalled(t, "GetSession", session.Id)
}

func TestAccountHandler(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	balance, _ := new(big.Int).SetString("2500000000000000000", 10)
	f.registry.On("Balance", alice).Return(balance, nil).Once()

	rr := f.do(t, "GET", "/account", token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var account models.Account
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &account))
	assert.Equal(t, models.Account{Address: alice, Balance: "2.5"}, account)
	f.assertExpectations(t)
}

func TestShareRoomHandler(t *testing.T) {
	listing := models.Listing{Name: "Loft", Location: "Seoul", Price: 5}
	roomId := int64(0)
	receipt := models.Receipt{TxHash: "0xfeed", BlockNumber: 3, RoomId: &roomId}

	testCases := []struct {
		name         string
		body         any
		inFlight     bool
		submitErr    error
		expectedCode int
		expectedKind string
	}{
		{name: "Listed", body: listing, expectedCode: http.StatusOK},
		{name: "Invalid JSON", body: []byte(`{"invalidJson"}`), expectedCode: http.StatusBadRequest, expectedKind: "malformed_input"},
		{name: "Missing name", body: models.Listing{Location: "Seoul", Price: 5}, expectedCode: http.StatusBadRequest, expectedKind: "malformed_input"},
		{name: "Already submitting", body: listing, inFlight: true, expectedCode: http.StatusConflict},
		{name: "Wallet declined", body: listing, submitErr: fmt.Errorf("shareRoom: %w", apperrors.ErrRejectedTransaction), expectedCode: http.StatusForbidden, expectedKind: "rejected_transaction"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			token := f.performLogin(t, alice)

			_, isListing := tc.body.(models.Listing)
			valid := isListing && tc.body.(models.Listing).Name != ""

			if valid {
				f.cache.On("AcquireSubmission", alice, settings.SubmitLockTTL).Return(!tc.inFlight, nil).Once()
			}
			if valid && !tc.inFlight {
				entry := models.Submission{Kind: models.SubmissionListing, Caller: alice}
				journaled := entry
				journaled.Id = 11
				f.journal.On("CreateSubmission", entry).Return(journaled, nil).Once()
				f.cache.On("ReleaseSubmission", alice).Once()

				if tc.submitErr == nil {
					f.registry.On("SubmitRoomListing", alice, listing).Return(receipt, nil).Once()
					f.journal.On("FinishSubmission", int64(11), models.StatusSucceeded, "0xfeed", "").Return(nil).Once()
					f.cache.On("DeleteRooms").Once()
				} else {
					f.registry.On("SubmitRoomListing", alice, listing).Return(models.Receipt{}, tc.submitErr).Once()
					f.journal.On("FinishSubmission", int64(11), models.StatusFailed, "", apperrors.Kind(tc.submitErr)).Return(nil).Once()
				}
			}

			rr := f.do(t, "POST", "/rooms/share", token, tc.body)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				var got models.Receipt
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, receipt, got)
			}
			if tc.expectedKind != "" {
				assert.Equal(t, tc.expectedKind, decodeError(t, rr)["error"])
			}

			f.assertExpectations(t)
		})
	}
}

func TestRentRoomHandler(t *testing.T) {
	rental := models.Rental{RoomId: 0, CheckIn: 10, CheckOut: 13, Cost: 15}
	rentId := int64(4)
	receipt := models.Receipt{TxHash: "0xbeef", RentId: &rentId}
	index := 0
	badIndex := 5

	testCases := []struct {
		name           string
		request        models.RentalRequest
		submitErr      error
		fromList       bool
		expectedCode   int
		expectedKind   string
		recommendation *models.Recommendation
	}{
		{
			name:         "Rented by encoded selection",
			request:      models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "20220110", CheckOut: "2022-0113"},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Rented by index",
			request:      models.RentalRequest{RoomIndex: &index, CheckIn: "2022-01-10", CheckOut: "2022-01-13"},
			fromList:     true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "No selection",
			request:      models.RentalRequest{CheckIn: "2022-01-10", CheckOut: "2022-01-13"},
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_selection",
		},
		{
			name:         "Index out of range",
			request:      models.RentalRequest{RoomIndex: &badIndex, CheckIn: "2022-01-10", CheckOut: "2022-01-13"},
			fromList:     true,
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_selection",
		},
		{
			name:         "Unparseable date",
			request:      models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "next friday", CheckOut: "2022-01-13"},
			expectedCode: http.StatusBadRequest,
			expectedKind: "malformed_input",
		},
		{
			name:         "Check-out before check-in",
			request:      models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "20220113", CheckOut: "20220110"},
			expectedCode: http.StatusBadRequest,
			expectedKind: "malformed_input",
		},
		{
			name:         "Zero nights",
			request:      models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "20220110", CheckOut: "2022-01-10"},
			expectedCode: http.StatusBadRequest,
			expectedKind: "malformed_input",
		},
		{
			name:         "Insufficient funds",
			request:      models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "20220110", CheckOut: "20220113"},
			submitErr:    fmt.Errorf("rentRoom: %w: insufficient funds for gas * price + value", apperrors.ErrRejectedTransaction),
			expectedCode: http.StatusForbidden,
			expectedKind: "rejected_transaction",
		},
		{
			name:           "Contract refuses dates",
			request:        models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "20220110", CheckOut: "20220113"},
			submitErr:      fmt.Errorf("rentRoom: %w: Insufficient payment", apperrors.ErrContractReverted),
			expectedCode:   http.StatusUnprocessableEntity,
			expectedKind:   "contract_reverted",
			recommendation: &models.Recommendation{CheckIn: 20, CheckOut: 23},
		},
		{
			name:         "Node unreachable",
			request:      models.RentalRequest{Selection: selection.Encode(loft), CheckIn: "20220110", CheckOut: "20220113"},
			submitErr:    fmt.Errorf("rentRoom: %w", apperrors.ErrConnection),
			expectedCode: http.StatusBadGateway,
			expectedKind: "connection",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			token := f.performLogin(t, alice)

			if tc.fromList {
				cached, _ := json.Marshal([]models.Room{cabin, loft})
				f.cache.On("GetRooms").Return(cached, nil).Once()
			}

			submits := tc.expectedCode == http.StatusOK || tc.submitErr != nil
			if submits {
				entry := models.Submission{Kind: models.SubmissionRental, Caller: alice, RoomId: 0, CheckIn: 10, CheckOut: 13, Payment: 15}
				journaled := entry
				journaled.Id = 21

				f.cache.On("AcquireSubmission", alice, settings.SubmitLockTTL).Return(true, nil).Once()
				f.cache.On("ReleaseSubmission", alice).Once()
				f.journal.On("CreateSubmission", entry).Return(journaled, nil).Once()

				if tc.submitErr == nil {
					f.registry.On("SubmitRental", alice, rental).Return(receipt, nil).Once()
					f.journal.On("FinishSubmission", int64(21), models.StatusSucceeded, "0xbeef", "").Return(nil).Once()
				} else {
					f.registry.On("SubmitRental", alice, rental).Return(models.Receipt{}, tc.submitErr).Once()
					f.journal.On("FinishSubmission", int64(21), models.StatusFailed, "", tc.expectedKind).Return(nil).Once()
				}
				if tc.recommendation != nil {
					f.registry.On("RecommendDate", int64(0), int64(10), int64(13)).Return(*tc.recommendation, nil).Once()
				}
			}

			rr := f.do(t, "POST", "/rents", token, tc.request)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				var got models.Receipt
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, receipt, got)
			} else {
				body := decodeError(t, rr)
				assert.Equal(t, tc.expectedKind, body["error"])
				assert.NotEmpty(t, body["message"])
				if tc.recommendation != nil {
					assert.Equal(t, map[string]any{"checkIn": float64(20), "checkOut": float64(23)}, body["recommendation"])
				} else {
					assert.Nil(t, body["recommendation"])
				}
			}

			f.assertExpectations(t)
		})
	}
}

func TestQuoteHandler(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	target := "/quote?selection=" + url.QueryEscape(selection.Encode(loft)) + "&checkIn=20220110&checkOut=2022-01-13"
	rr := f.do(t, "GET", target, token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var quote models.Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &quote))
	assert.Equal(t, models.Quote{Nights: 3, Cost: 15, Display: 24000}, quote)

	rr = f.do(t, "GET", "/quote?selection="+url.QueryEscape(selection.Encode(loft))+"&checkIn=20220113&checkOut=20220110", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "malformed_input", decodeError(t, rr)["error"])

	rr = f.do(t, "GET", "/quote?checkIn=20220110&checkOut=20220113", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Select a room first", decodeError(t, rr)["message"])
}

func TestNormalizeAndDisplay(t *testing.T) {
	f := newFixture()

	rr := f.do(t, "GET", "/dates/normalize?value=20240115", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"value":"2024-01-15"}`, rr.Body.String())

	rr = f.do(t, "GET", "/display?amount=15", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"display":24000}`, rr.Body.String())

	rr = f.do(t, "GET", "/display?amount=lots", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPage(t *testing.T) {
	f := newFixture()

	rr := f.do(t, "GET", "/", "", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), settings.ContractAddress)
}

func TestSubmissionsHandler(t *testing.T) {
	f := newFixture()
	token := f.performLogin(t, alice)

	submissions := []models.Submission{{Id: 1, Kind: models.SubmissionRental, Caller: alice, Status: models.StatusFailed, Failure: "contract_reverted"}}
	f.journal.On("GetSubmissionsByCaller", alice).Return(submissions, nil).Once()

	rr := f.do(t, "GET", "/submissions", token, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.Submission
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "contract_reverted", got[0].Failure)
	f.assertExpectations(t)
}
