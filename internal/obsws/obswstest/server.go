// Package obswstest provides an in-process OBS WebSocket v5 server for tests.
package obswstest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/GriffinCanCode/screencue/internal/obsws"
)

// Fixed handshake values so tests can precompute authentication strings.
const (
	Salt      = "lM1GncleQOaCu9lT1yeUZhFYnqhsLLP1G5lAGo3ixaI="
	Challenge = "+IxH4CnCiqpX1rM9scsNynZzbOe4KhDeYcTNS3PDaeY="
)

// Call records one request the server handled.
type Call struct {
	RequestType string
	Data        map[string]any
}

type itemKey struct{ scene, source string }

// Server is a fake OBS instance holding filter and scene item state.
type Server struct {
	*httptest.Server

	Password string

	mu        sync.Mutex
	filters   map[string]bool // "source/filter"
	items     map[itemKey]int
	enabled   map[int]bool
	nextID    int
	calls     []Call
	failNext  int
	dropNext  int
	emitEvent bool
	conns     int
}

// NewServer starts a server. An empty password disables authentication.
func NewServer(password string) *Server {
	s := &Server{
		Password: password,
		filters:  make(map[string]bool),
		items:    make(map[itemKey]int),
		enabled:  make(map[int]bool),
		nextID:   1,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Endpoint returns host and port of the listener.
func (s *Server) Endpoint() (string, int) {
	u, _ := url.Parse(s.URL)
	host, port, _ := net.SplitHostPort(u.Host)
	p, _ := strconv.Atoi(port)
	return host, p
}

// Config returns a client config pointed at this server.
func (s *Server) Config() obsws.Config {
	host, port := s.Endpoint()
	return obsws.Config{Host: host, Port: port, Password: s.Password}
}

// AddFilter registers a filter on source.
func (s *Server) AddFilter(source, filter string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[source+"/"+filter] = enabled
}

// AddSceneItem registers source within scene and returns its id.
func (s *Server) AddSceneItem(scene, source string, enabled bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.items[itemKey{scene, source}] = id
	s.enabled[id] = enabled
	return id
}

// FilterEnabled reports current filter state.
func (s *Server) FilterEnabled(source, filter string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters[source+"/"+filter]
}

// ItemEnabled reports current scene item visibility.
func (s *Server) ItemEnabled(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[id]
}

// FailNext makes the next n requests answer with a failed status.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// DropNext makes the next n requests close the connection instead of answering.
func (s *Server) DropNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropNext = n
}

// EmitEvents makes the server send an unsolicited event before every response.
func (s *Server) EmitEvents(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitEvent = on
}

// Calls returns the requests handled so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsOf returns the requests of one type.
func (s *Server) CallsOf(requestType string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.RequestType == requestType {
			out = append(out, c)
		}
	}
	return out
}

// Connections returns the number of completed handshakes.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{obsws.Subprotocol}})
	if err != nil {
		return
	}
	defer conn.CloseNow()
	ctx := r.Context()

	hello := obsws.Hello{OBSWebSocketVersion: "5.4.2", RPCVersion: obsws.RPCVersion}
	if s.Password != "" {
		hello.Authentication = &obsws.Authentication{Challenge: Challenge, Salt: Salt}
	}
	if err := send(ctx, conn, obsws.OpHello, hello); err != nil {
		return
	}

	var msg obsws.Message
	if err := wsjson.Read(ctx, conn, &msg); err != nil || msg.Op != obsws.OpIdentify {
		conn.Close(websocket.StatusPolicyViolation, "expected identify")
		return
	}
	var identify obsws.Identify
	_ = json.Unmarshal(msg.D, &identify)
	if s.Password != "" && identify.Authentication != obsws.AuthString(s.Password, Salt, Challenge) {
		conn.Close(obsws.CloseAuthenticationFailed, "Authentication failed.")
		return
	}
	if err := send(ctx, conn, obsws.OpIdentified, obsws.Identified{NegotiatedRPCVersion: obsws.RPCVersion}); err != nil {
		return
	}
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()

	for {
		var in obsws.Message
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return
		}
		if in.Op != obsws.OpRequest {
			continue
		}
		var req struct {
			RequestType string         `json:"requestType"`
			RequestID   string         `json:"requestId"`
			RequestData map[string]any `json:"requestData"`
		}
		if err := json.Unmarshal(in.D, &req); err != nil {
			return
		}

		resp, drop, event := s.handle(req.RequestType, req.RequestData)
		if drop {
			conn.Close(websocket.StatusInternalError, "dropped")
			return
		}
		if event {
			_ = send(ctx, conn, obsws.OpEvent, map[string]any{"eventType": "CurrentProgramSceneChanged", "eventIntent": 4})
		}
		resp.RequestType = req.RequestType
		resp.RequestID = req.RequestID
		if err := send(ctx, conn, obsws.OpRequestResponse, resp); err != nil {
			return
		}
	}
}

func (s *Server) handle(requestType string, data map[string]any) (resp obsws.RequestResponse, drop, event bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{RequestType: requestType, Data: data})
	event = s.emitEvent
	if s.dropNext > 0 {
		s.dropNext--
		return resp, true, false
	}
	if s.failNext > 0 {
		s.failNext--
		resp.RequestStatus = obsws.RequestStatus{Result: false, Code: 702, Comment: "injected failure"}
		return resp, false, event
	}

	str := func(k string) string { v, _ := data[k].(string); return v }
	num := func(k string) int { v, _ := data[k].(float64); return int(v) }
	flag := func(k string) bool { v, _ := data[k].(bool); return v }
	ok := func(body any) obsws.RequestResponse {
		r := obsws.RequestResponse{RequestStatus: obsws.RequestStatus{Result: true, Code: obsws.StatusSuccess}}
		if body != nil {
			r.ResponseData, _ = json.Marshal(body)
		}
		return r
	}
	notFound := func(what string) obsws.RequestResponse {
		return obsws.RequestResponse{RequestStatus: obsws.RequestStatus{Code: 600, Comment: fmt.Sprintf("No %s was found.", what)}}
	}

	switch requestType {
	case obsws.ReqGetVersion:
		return ok(obsws.Version{OBSVersion: "30.1.2", OBSWebSocketVersion: "5.4.2", RPCVersion: 1, Platform: "linux"}), false, event
	case obsws.ReqGetSourceFilter:
		v, found := s.filters[str("sourceName")+"/"+str("filterName")]
		if !found {
			return notFound("filter"), false, event
		}
		return ok(map[string]any{"filterEnabled": v, "filterName": str("filterName")}), false, event
	case obsws.ReqSetSourceFilterEnabled:
		key := str("sourceName") + "/" + str("filterName")
		if _, found := s.filters[key]; !found {
			return notFound("filter"), false, event
		}
		s.filters[key] = flag("filterEnabled")
		return ok(nil), false, event
	case obsws.ReqGetSceneItemID:
		id, found := s.items[itemKey{str("sceneName"), str("sourceName")}]
		if !found {
			return notFound("scene item"), false, event
		}
		return ok(map[string]any{"sceneItemId": id}), false, event
	case obsws.ReqGetSceneItemEnabled:
		v, found := s.enabled[num("sceneItemId")]
		if !found {
			return notFound("scene item"), false, event
		}
		return ok(map[string]any{"sceneItemEnabled": v}), false, event
	case obsws.ReqSetSceneItemEnabled:
		id := num("sceneItemId")
		if _, found := s.enabled[id]; !found {
			return notFound("scene item"), false, event
		}
		s.enabled[id] = flag("sceneItemEnabled")
		return ok(nil), false, event
	}
	return obsws.RequestResponse{RequestStatus: obsws.RequestStatus{Code: 204, Comment: "Unknown request type."}}, false, event
}

func send(ctx context.Context, conn *websocket.Conn, op int, d any) error {
	msg, err := obsws.Encode(op, d)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, msg)
}
