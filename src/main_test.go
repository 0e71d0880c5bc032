package main

import (
	"fmt"
	"hangarhub/src/db"
	"hangarhub/src/lib"
	"hangarhub/src/middlewares"
	"hangarhub/src/types"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB    *gorm.DB
	Mock  *sqlmock.Sqlmock
	Token *string
}

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func generateJWT(email string, id uint) (string, error) {
	claims := types.Claims{
		Username: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(id),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func (s *TestSuite) SetupSuite() {
	registerValidators()

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = &mock

	token, err := generateJWT("someone@example.com", 1)
	if err != nil {
		log.Fatalf("Error generating JWT token: %s\n", err.Error())
		return
	}
	s.Token = &token
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	apiv1Group(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestBookingRoutes() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	bookingHandlers(apiv1)

	token := *s.Token

	s.Run("Should reject requests without a token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader("{}"))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should reject a malformed token", func() {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer not-a-token")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("Should return a 400 error response", func() {
		w := httptest.NewRecorder()
		body := `{"hangarId":1}`
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)

		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.Get(string(rbytes), "error").String()
		assert.NotEmpty(s.T(), errMsg)
	})

	s.Run("Should reject malformed dates", func() {
		w := httptest.NewRecorder()
		body := `{"hangarId":1,"userId":1,"checkIn":"not-a-date","checkOut":"also-not-a-date","totalPrice":300}`
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should confirm a booking and return payment details", func() {
		mock := *s.Mock
		gw := newFakeGateway()
		lib.NewPaymentGateway(gw)

		expectProtocolPrelude(mock)
		mock.ExpectQuery(`SELECT (.+) FROM "hangars"`).WillReturnRows(hangarRows())
		mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnRows(userRows())
		mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
		mock.ExpectCommit()

		reqBody := confirmBody()
		body := fmt.Sprintf(
			`{"hangarId":%d,"userId":%d,"checkIn":%q,"checkOut":%q,"totalPrice":%v,"subtotal":%v,"fees":%v}`,
			reqBody.HangarID, reqBody.UserID, reqBody.CheckIn, reqBody.CheckOut, *reqBody.TotalPrice, reqBody.Subtotal, reqBody.Fees,
		)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader(body))
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)

		rbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		sjson := string(rbytes)
		assert.True(s.T(), gjson.Get(sjson, "success").Bool())
		assert.Equal(s.T(), int64(101), gjson.Get(sjson, "booking.id").Int())
		assert.Equal(s.T(), "confirmed", gjson.Get(sjson, "booking.status").String())
		assert.Equal(s.T(), int64(2), gjson.Get(sjson, "booking.nights").Int())
		assert.Equal(s.T(), "refundable", gjson.Get(sjson, "booking.bookingType").String())
		assert.Equal(s.T(), "H-12", gjson.Get(sjson, "booking.hangarNumber").String())
		assert.Equal(s.T(), "pi_new", gjson.Get(sjson, "payment.paymentIntentId").String())
		assert.Equal(s.T(), "pi_new_secret", gjson.Get(sjson, "payment.clientSecret").String())
	})
}

func (s *TestSuite) TestCancelRoute() {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.AuthMiddleware)
	bookingHandlers(apiv1)

	gw := newFakeGateway()
	lib.NewPaymentGateway(gw)

	mock := *s.Mock
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "booking_type", "subtotal", "payment_intent_id"}).
			AddRow(12, "confirmed", "refundable", 270.0, "pi_12"))
	mock.ExpectExec(`UPDATE "bookings"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/bookings/12/cancel", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *s.Token))
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)

	rbytes, err := io.ReadAll(w.Body)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), "cancelled", gjson.Get(string(rbytes), "data.status").String())
	assert.Equal(s.T(), int64(27000), gw.refunded["pi_12"])
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
