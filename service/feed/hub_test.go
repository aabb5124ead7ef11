package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain/market"
)

type hubTestSuite struct {
	suite.Suite

	hub    *Hub
	server *httptest.Server
}

func TestHubTestSuite(t *testing.T) {
	suite.Run(t, new(hubTestSuite))
}

func (s *hubTestSuite) SetupTest() {
	s.hub = NewHub()
	go s.hub.Run()
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.hub.ServeWs(ctx.Background(), w, r); err != nil {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func (s *hubTestSuite) TearDownTest() {
	s.server.Close()
	s.hub.Close()
}

func (s *hubTestSuite) dial() *websocket.Conn {
	url := strings.Replace(s.server.URL, "http", "ws", 1)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	// registration races the dial handshake, give the hub a beat
	time.Sleep(50 * time.Millisecond)
	return conn
}

func (s *hubTestSuite) TestPublishReachesSubscriber() {
	conn := s.dial()
	defer conn.Close()

	sent := &market.Event{
		ListingId: 7,
		Type:      market.EventListingSold,
		Status:    "sold",
		Actor:     "0xabc",
		Amount:    "100",
		At:        time.Now().UTC(),
	}
	s.hub.Publish(ctx.Background(), sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	s.Require().NoError(err)

	got := &market.Event{}
	s.Require().NoError(json.Unmarshal(msg, got))
	s.Equal(sent.ListingId, got.ListingId)
	s.Equal(sent.Type, got.Type)
	s.Equal(sent.Amount, got.Amount)
}

func (s *hubTestSuite) TestPublishFansOut() {
	a := s.dial()
	defer a.Close()
	b := s.dial()
	defer b.Close()

	s.hub.Publish(ctx.Background(), &market.Event{ListingId: 1, Type: market.EventListingCreated})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		s.Require().NoError(err)
		got := &market.Event{}
		s.Require().NoError(json.Unmarshal(msg, got))
		s.Equal(int64(1), got.ListingId)
	}
}

func (s *hubTestSuite) TestPublishWithoutSubscribersDoesNotBlock() {
	done := make(chan struct{})
	go func() {
		s.hub.Publish(ctx.Background(), &market.Event{ListingId: 1, Type: market.EventListingCreated})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("publish blocked with no subscribers")
	}
}
