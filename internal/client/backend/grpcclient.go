package backend

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/common"
	"github.com/dmitrijs2005/taskmark/internal/models"
	"github.com/dmitrijs2005/taskmark/internal/rpc"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
)

// expirySkew refreshes an access token slightly before it actually expires.
const expirySkew = 5 * time.Second

// GRPCClient is the typed data-access client. It owns the current token pair,
// attaches the access token to every non-public call and refreshes it once
// when the server reports it expired.
type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.BackendClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(models.TokenPair)

	// refreshMu serializes refreshes so concurrent expired calls share one.
	refreshMu sync.Mutex
	now       func() time.Time
}

func NewGRPCClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout, now: time.Now}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, opts...)
	if err != nil {
		return err
	}
	c.conn = conn
	c.client = rpc.NewBackendClient(conn)
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	err = invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
	if !isTokenExpired(err) {
		return err
	}

	token, err = c.refresh(ctx, token)
	if err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
}

// SetSession installs the token pair of s; nil forgets the tokens.
func (c *GRPCClient) SetSession(s *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.accessToken, c.refreshToken = "", ""
		return
	}
	c.accessToken, c.refreshToken = s.AccessToken, s.RefreshToken
}

// OnTokensRefreshed registers fn to be called after every successful refresh.
func (c *GRPCClient) OnTokensRefreshed(fn func(models.TokenPair)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

// AccessToken returns a usable access token, refreshing it first when its
// exp claim has already passed.
func (c *GRPCClient) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.accessToken
	c.mu.Unlock()

	if token == "" {
		return "", ErrUnauthorized
	}
	if tokenExpired(token, c.now()) {
		return c.refresh(ctx, token)
	}
	return token, nil
}

// tokenExpired reads the exp claim without verifying the signature; the
// server stays the authority. Tokens that do not parse count as live.
func tokenExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Add(expirySkew).Before(claims.ExpiresAt.Time)
}

func (c *GRPCClient) refresh(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.Lock()
	current, refreshToken := c.accessToken, c.refreshToken
	c.mu.Unlock()

	if current != "" && current != stale {
		return current, nil
	}
	if refreshToken == "" {
		return "", ErrUnauthorized
	}

	pair, err := c.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", mapError(err)
	}

	c.mu.Lock()
	c.accessToken, c.refreshToken = pair.AccessToken, pair.RefreshToken
	hook := c.onRefresh
	c.mu.Unlock()

	if hook != nil {
		hook(*pair)
	}
	return pair.AccessToken, nil
}

func (c *GRPCClient) SignUp(ctx context.Context, email, password, displayName string) (*models.Session, error) {
	s, err := c.client.SignUp(ctx, &rpc.SignUpRequest{Email: email, Password: password, DisplayName: displayName})
	if err != nil {
		return nil, mapError(err)
	}
	c.SetSession(s)
	return s, nil
}

func (c *GRPCClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	s, err := c.client.SignIn(ctx, &rpc.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	c.SetSession(s)
	return s, nil
}

// SignOut revokes the current refresh token. The local tokens are dropped
// even when the call fails.
func (c *GRPCClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	_, err := c.client.SignOut(ctx, &rpc.SignOutRequest{RefreshToken: refreshToken})
	c.SetSession(nil)
	return mapError(err)
}

func (c *GRPCClient) GetUser(ctx context.Context) (*models.User, error) {
	resp, err := c.client.GetUser(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.User, nil
}

func (c *GRPCClient) UpdateUser(ctx context.Context, displayName, password *string) (*models.User, error) {
	resp, err := c.client.UpdateUser(ctx, &rpc.UpdateUserRequest{DisplayName: displayName, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.User, nil
}

func (c *GRPCClient) ResetPasswordForEmail(ctx context.Context, email string) error {
	_, err := c.client.ResetPasswordForEmail(ctx, &rpc.ResetPasswordRequest{Email: email})
	return mapError(err)
}

func (c *GRPCClient) VerifyRecovery(ctx context.Context, token string) (*models.Session, error) {
	s, err := c.client.VerifyRecovery(ctx, &rpc.VerifyRecoveryRequest{Token: token})
	if err != nil {
		return nil, mapError(err)
	}
	c.SetSession(s)
	return s, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Select(ctx context.Context, table string, q models.Query) (json.RawMessage, error) {
	resp, err := c.client.Select(ctx, &rpc.SelectRequest{Table: table, Query: q})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Rows, nil
}

func (c *GRPCClient) Insert(ctx context.Context, table string, row any) (json.RawMessage, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Insert(ctx, &rpc.InsertRequest{Table: table, Row: data})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Row, nil
}

func (c *GRPCClient) Update(ctx context.Context, table, id string, patch any) (json.RawMessage, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Update(ctx, &rpc.UpdateRequest{Table: table, ID: id, Patch: data})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Row, nil
}

func (c *GRPCClient) Delete(ctx context.Context, table, id string) error {
	_, err := c.client.Delete(ctx, &rpc.DeleteRequest{Table: table, ID: id})
	return mapError(err)
}
