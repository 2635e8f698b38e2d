package auctionhouse

import (
	"errors"
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/kartnagrale/auction-core/protocol"
)

// Server is the Auction House's TCP acceptor for Agents: one acceptor
// task plus one handler goroutine per agent connection (spec.md §5).
type Server struct {
	house    *House
	listener net.Listener
}

func NewServer(h *House) *Server {
	return &Server{house: h}
}

func (s *Server) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.listener = ln
	return ln.Addr().String(), nil
}

// ListenOn adopts an already-bound listener. Used when the house must
// bind its socket before it can advertise the resolved port to the Bank
// (spec.md §4.6: "first binding their listening socket, then sending
// RegisterAuctionHouse").
func (s *Server) ListenOn(ln net.Listener) (string, error) {
	s.listener = ln
	return ln.Addr().String(), nil
}

func (s *Server) Serve() error {
	for {
		nc, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(nc)
	}
}

func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// handleConn is the per-agent-connection handler. The accountId for this
// connection becomes known only once a PLACE_BID frame arrives (spec.md
// §4.3); until then, any notification meant for this agent simply has
// nowhere to be pushed yet.
func (s *Server) handleConn(nc net.Conn) {
	connID := uuid.NewString()
	log.Printf("auctionhouse: conn %s: accepted from %s", connID, nc.RemoteAddr())
	conn := protocol.NewConn(nc)
	defer func() {
		log.Printf("auctionhouse: conn %s: closed", connID)
		conn.Close()
	}()

	var session *Session
	defer func() {
		if session != nil {
			s.house.DropSession(session)
		}
	}()

	for {
		env, err := conn.Recv()
		if err != nil {
			return
		}
		if sess := s.dispatch(conn, env); sess != nil {
			session = sess
		}
	}
}

// dispatch handles one frame and returns the connection's session if this
// frame caused it to be (re)established.
func (s *Server) dispatch(conn *protocol.Conn, env *protocol.Envelope) *Session {
	var (
		err     error
		session *Session
	)
	switch env.Tag {
	case protocol.TagGetItems:
		err = conn.Send(protocol.TagGetItemsResponse, s.house.GetItems())
	case protocol.TagPlaceBid:
		session, err = s.handlePlaceBid(conn, env)
	case protocol.TagConfirmWinner:
		err = s.handleConfirmWinner(conn, env)
	default:
		err = conn.Send(protocol.TagErrorResponse, protocol.SuccessResponse{
			Success: false,
			Message: "unknown tag: " + string(env.Tag),
		})
	}
	if err != nil {
		log.Printf("auctionhouse: handling %s: %v", env.Tag, err)
	}
	return session
}

func (s *Server) handlePlaceBid(conn *protocol.Conn, env *protocol.Envelope) (*Session, error) {
	var req protocol.PlaceBidRequest
	if err := protocol.Decode(env, &req); err != nil {
		return nil, conn.Send(protocol.TagPlaceBidResponse, protocol.PlaceBidResponse{Success: false, Status: string(protocol.StatusRejected), Message: err.Error()})
	}
	session := s.house.EnsureSession(req.AgentID, conn)
	resp := s.house.PlaceBid(req.ItemID, req.AgentID, req.Amount)
	return session, conn.Send(protocol.TagPlaceBidResponse, resp)
}

func (s *Server) handleConfirmWinner(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.ConfirmWinnerRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagConfirmWinnerResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	resp := s.house.ConfirmWinner(req.ItemID, req.AgentID)
	return conn.Send(protocol.TagConfirmWinnerResponse, resp)
}
