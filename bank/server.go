package bank

import (
	"errors"
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/kartnagrale/auction-core/protocol"
)

// Server is the Bank's TCP acceptor: a dedicated accept loop plus one
// handler goroutine per client connection (spec.md §5).
type Server struct {
	bank     *Bank
	listener net.Listener
	metrics  Metrics
}

// Metrics is the subset of metrics the Bank server touches. Kept as a
// narrow interface here (rather than importing the metrics package
// directly), the same way the item engine takes a narrow HouseCallback
// instead of a full *House back-reference.
type Metrics interface {
	FundsBlocked()
	FundsUnblocked()
	FundsTransferred()
	AccountRegistered()
}

func NewServer(b *Bank, m Metrics) *Server {
	return &Server{bank: b, metrics: m}
}

func (s *Server) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.listener = ln
	return ln.Addr().String(), nil
}

// Serve runs the accept loop until the listener is closed.
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

func (s *Server) handleConn(nc net.Conn) {
	connID := uuid.NewString()
	log.Printf("bank: conn %s: accepted from %s", connID, nc.RemoteAddr())
	conn := protocol.NewConn(nc)
	defer func() {
		log.Printf("bank: conn %s: closed", connID)
		conn.Close()
	}()

	for {
		env, err := conn.Recv()
		if err != nil {
			return // client disconnected or read error: this handler's job is done
		}
		s.dispatch(conn, env)
	}
}

func (s *Server) dispatch(conn *protocol.Conn, env *protocol.Envelope) {
	var err error
	switch env.Tag {
	case protocol.TagRegisterAgent:
		err = s.handleRegisterAgent(conn, env)
	case protocol.TagRegisterAuctionHouse:
		err = s.handleRegisterAuctionHouse(conn, env)
	case protocol.TagBlockFunds:
		err = s.handleBlockFunds(conn, env)
	case protocol.TagUnblockFunds:
		err = s.handleUnblockFunds(conn, env)
	case protocol.TagTransferFunds:
		err = s.handleTransferFunds(conn, env)
	case protocol.TagGetAccountInfo:
		err = s.handleGetAccountInfo(conn, env)
	case protocol.TagGetAuctionHouses:
		err = s.handleGetAuctionHouses(conn, env)
	case protocol.TagDeregister:
		err = s.handleDeregister(conn, env)
	default:
		err = conn.Send(protocol.TagErrorResponse, protocol.SuccessResponse{
			Success: false,
			Message: "unknown tag: " + string(env.Tag),
		})
	}
	if err != nil {
		log.Printf("bank: handling %s: %v", env.Tag, err)
	}
}

func houseInfos(regs []HouseRegistration) []protocol.HouseInfo {
	out := make([]protocol.HouseInfo, len(regs))
	for i, r := range regs {
		out[i] = protocol.HouseInfo{HouseID: r.HouseID, Host: r.Host, Port: r.Port, AccountID: r.AccountID}
	}
	return out
}

func (s *Server) handleRegisterAgent(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.RegisterAgentRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagRegisterAgentResponse, protocol.RegisterAgentResponse{Success: false, Message: err.Error()})
	}
	if err := protocol.Validate(req); err != nil {
		return conn.Send(protocol.TagRegisterAgentResponse, protocol.RegisterAgentResponse{Success: false, Message: err.Error()})
	}
	id, houses, err := s.bank.RegisterAgent(req.Name, req.InitialBalance)
	if err != nil {
		return conn.Send(protocol.TagRegisterAgentResponse, protocol.RegisterAgentResponse{Success: false, Message: err.Error()})
	}
	s.metrics.AccountRegistered()
	return conn.Send(protocol.TagRegisterAgentResponse, protocol.RegisterAgentResponse{
		Success: true, AccountID: id, Message: "registered", Houses: houseInfos(houses),
	})
}

func (s *Server) handleRegisterAuctionHouse(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.RegisterAuctionHouseRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagRegisterAuctionHouseResponse, protocol.RegisterAuctionHouseResponse{Success: false, Message: err.Error()})
	}
	if err := protocol.Validate(req); err != nil {
		return conn.Send(protocol.TagRegisterAuctionHouseResponse, protocol.RegisterAuctionHouseResponse{Success: false, Message: err.Error()})
	}
	houseID, accountID, err := s.bank.RegisterAuctionHouse(req.Host, req.Port)
	if err != nil {
		return conn.Send(protocol.TagRegisterAuctionHouseResponse, protocol.RegisterAuctionHouseResponse{Success: false, Message: err.Error()})
	}
	s.metrics.AccountRegistered()
	return conn.Send(protocol.TagRegisterAuctionHouseResponse, protocol.RegisterAuctionHouseResponse{
		Success: true, HouseID: houseID, AccountID: accountID, Message: "registered",
	})
}

func (s *Server) handleBlockFunds(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.BlockFundsRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagBlockFundsResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	if err := s.bank.BlockFunds(req.AccountID, req.Amount); err != nil {
		return conn.Send(protocol.TagBlockFundsResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	s.metrics.FundsBlocked()
	return conn.Send(protocol.TagBlockFundsResponse, protocol.SuccessResponse{Success: true, Message: "blocked"})
}

func (s *Server) handleUnblockFunds(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.UnblockFundsRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagUnblockFundsResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	if err := s.bank.UnblockFunds(req.AccountID, req.Amount); err != nil {
		return conn.Send(protocol.TagUnblockFundsResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	s.metrics.FundsUnblocked()
	return conn.Send(protocol.TagUnblockFundsResponse, protocol.SuccessResponse{Success: true, Message: "unblocked"})
}

func (s *Server) handleTransferFunds(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.TransferFundsRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagTransferFundsResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	if err := s.bank.TransferFunds(req.FromID, req.ToID, req.Amount); err != nil {
		return conn.Send(protocol.TagTransferFundsResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	s.metrics.FundsTransferred()
	return conn.Send(protocol.TagTransferFundsResponse, protocol.SuccessResponse{Success: true, Message: "transferred"})
}

func (s *Server) handleGetAccountInfo(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.GetAccountInfoRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagGetAccountInfoResponse, protocol.GetAccountInfoResponse{Success: false, Message: err.Error()})
	}
	snap, err := s.bank.GetAccountInfo(req.AccountID)
	if err != nil {
		return conn.Send(protocol.TagGetAccountInfoResponse, protocol.GetAccountInfoResponse{Success: false, Message: err.Error()})
	}
	return conn.Send(protocol.TagGetAccountInfoResponse, protocol.GetAccountInfoResponse{
		Success: true, Total: snap.Total, Available: snap.Available, Blocked: snap.Blocked, Message: "ok",
	})
}

func (s *Server) handleGetAuctionHouses(conn *protocol.Conn, env *protocol.Envelope) error {
	houses := s.bank.GetAuctionHouses()
	return conn.Send(protocol.TagGetAuctionHousesResponse, protocol.GetAuctionHousesResponse{
		Success: true, Houses: houseInfos(houses), Message: "ok",
	})
}

func (s *Server) handleDeregister(conn *protocol.Conn, env *protocol.Envelope) error {
	var req protocol.DeregisterRequest
	if err := protocol.Decode(env, &req); err != nil {
		return conn.Send(protocol.TagDeregisterResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	if err := protocol.Validate(req); err != nil {
		return conn.Send(protocol.TagDeregisterResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	if err := s.bank.Deregister(req.AccountID, req.Kind); err != nil {
		return conn.Send(protocol.TagDeregisterResponse, protocol.SuccessResponse{Success: false, Message: err.Error()})
	}
	return conn.Send(protocol.TagDeregisterResponse, protocol.SuccessResponse{Success: true, Message: "deregistered"})
}
