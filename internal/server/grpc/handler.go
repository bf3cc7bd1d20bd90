package grpc

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/rpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

type UserService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	SignOut(ctx context.Context, userID, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, displayName, password *string) (*models.User, error)
	ResetPasswordForEmail(ctx context.Context, email string) error
	VerifyRecovery(ctx context.Context, token string) (*models.Session, error)
	UserIDFromToken(token string) (string, error)
}

type DataService interface {
	Select(ctx context.Context, userID, table string, q models.Query) (json.RawMessage, error)
	Insert(ctx context.Context, userID, table string, row json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, userID, table, id string, patch json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, userID, table, id string) error
}

func (s *GRPCServer) SignUp(ctx context.Context, req *rpc.SignUpRequest) (*models.Session, error) {
	session, err := s.users.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Registered", "user_id", session.User.ID)
	return session, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *rpc.SignInRequest) (*models.Session, error) {
	session, err := s.users.SignIn(ctx, req.Email, req.Password)
	return session, toStatus(err)
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*models.TokenPair, error) {
	pair, err := s.users.RefreshToken(ctx, req.RefreshToken)
	return pair, toStatus(err)
}

func (s *GRPCServer) SignOut(ctx context.Context, req *rpc.SignOutRequest) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.users.SignOut(ctx, userID, req.RefreshToken); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, _ *emptypb.Empty) (*rpc.UserResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.UserResponse{User: *user}, nil
}

func (s *GRPCServer) UpdateUser(ctx context.Context, req *rpc.UpdateUserRequest) (*rpc.UserResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateUser(ctx, userID, req.DisplayName, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.UserResponse{User: *user}, nil
}

func (s *GRPCServer) ResetPasswordForEmail(ctx context.Context, req *rpc.ResetPasswordRequest) (*emptypb.Empty, error) {
	if err := s.users.ResetPasswordForEmail(ctx, req.Email); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) VerifyRecovery(ctx context.Context, req *rpc.VerifyRecoveryRequest) (*models.Session, error) {
	session, err := s.users.VerifyRecovery(ctx, req.Token)
	return session, toStatus(err)
}

func (s *GRPCServer) Select(ctx context.Context, req *rpc.SelectRequest) (*rpc.SelectResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.data.Select(ctx, userID, req.Table, req.Query)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.SelectResponse{Rows: rows}, nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *rpc.InsertRequest) (*rpc.RowResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.data.Insert(ctx, userID, req.Table, req.Row)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.RowResponse{Row: row}, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *rpc.UpdateRequest) (*rpc.RowResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.data.Update(ctx, userID, req.Table, req.ID, req.Patch)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.RowResponse{Row: row}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *rpc.DeleteRequest) (*emptypb.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.data.Delete(ctx, userID, req.Table, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Ping(context.Context, *emptypb.Empty) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}
