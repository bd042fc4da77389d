package grpctransport

import (
	"context"
	"fmt"

	"github.com/go-social-auth/internal/application/auth"
	"github.com/go-social-auth/internal/application/credential"
	"github.com/go-social-auth/internal/application/user"
	"github.com/go-social-auth/internal/domain"
	"github.com/go-social-auth/internal/pkg/validate"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified name of the accounts service.
const ServiceName = "social.v1.Accounts"

// Method names of the accounts service.
const (
	MethodAuthUser        = "/" + ServiceName + "/AuthUser"
	MethodVerifyUserEmail = "/" + ServiceName + "/VerifyUserEmail"
	MethodCreateUser      = "/" + ServiceName + "/CreateUser"
	MethodGetUser         = "/" + ServiceName + "/GetUser"
	MethodEditUser        = "/" + ServiceName + "/EditUser"
	MethodDeleteUser      = "/" + ServiceName + "/DeleteUser"
)

// PublicMethods are the account calls made before a credential exists.
func PublicMethods() []string {
	return []string{MethodAuthUser, MethodVerifyUserEmail, MethodCreateUser}
}

type AuthUserResponse struct {
	Token string `json:"token"`
}

type GetUserRequest struct {
	Name string `json:"name"`
}

type UserResponse struct {
	User *domain.User `json:"user"`
}

type PublicUserResponse struct {
	User *domain.PublicUser `json:"user"`
}

type Empty struct{}

// AccountsServer is the server API of the accounts service.
type AccountsServer interface {
	AuthUser(ctx context.Context, in *domain.LoginRequest) (*AuthUserResponse, error)
	VerifyUserEmail(ctx context.Context, in *domain.VerifyEmailRequest) (*Empty, error)
	CreateUser(ctx context.Context, in *domain.CreateUserRequest) (*UserResponse, error)
	GetUser(ctx context.Context, in *GetUserRequest) (*PublicUserResponse, error)
	EditUser(ctx context.Context, in *domain.UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, in *domain.DeleteUserRequest) (*Empty, error)
}

var accountsDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AuthUser", AccountsServer.AuthUser),
		unary("VerifyUserEmail", AccountsServer.VerifyUserEmail),
		unary("CreateUser", AccountsServer.CreateUser),
		unary("GetUser", AccountsServer.GetUser),
		unary("EditUser", AccountsServer.EditUser),
		unary("DeleteUser", AccountsServer.DeleteUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "accounts",
}

// unary adapts a typed method to grpc.MethodDesc, decoding the request and
// running the server's interceptor chain.
func unary[Req, Resp any](name string, call func(AccountsServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AccountsServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, handler)
		},
	}
}

// RegisterAccounts adds the accounts service to s.
func RegisterAccounts(s grpc.ServiceRegistrar, srv AccountsServer) {
	s.RegisterService(&accountsDesc, srv)
}

type challengeIssuer interface {
	StartVerify(ctx context.Context, email string) error
}

type AccountsDeps struct {
	Credentials credential.Service
	Challenges  challengeIssuer
	Users       user.Service
}

// Accounts serves the accounts service on top of the application services.
// Errors are returned as domain errors; the interceptors turn them into statuses.
type Accounts struct {
	credentials credential.Service
	challenges  challengeIssuer
	users       user.Service
}

func NewAccounts(deps AccountsDeps) *Accounts {
	return &Accounts{
		credentials: deps.Credentials,
		challenges:  deps.Challenges,
		users:       deps.Users,
	}
}

func (a *Accounts) AuthUser(ctx context.Context, in *domain.LoginRequest) (*AuthUserResponse, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	token, err := a.credentials.Issue(ctx, in.Name, in.Password)
	if err != nil {
		return nil, err
	}
	return &AuthUserResponse{Token: token}, nil
}

func (a *Accounts) VerifyUserEmail(ctx context.Context, in *domain.VerifyEmailRequest) (*Empty, error) {
	if err := a.challenges.StartVerify(ctx, in.Email); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (a *Accounts) CreateUser(ctx context.Context, in *domain.CreateUserRequest) (*UserResponse, error) {
	u, err := a.users.Register(ctx, *in)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: u}, nil
}

func (a *Accounts) GetUser(ctx context.Context, in *GetUserRequest) (*PublicUserResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	u, err := a.users.Get(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	return &PublicUserResponse{User: u.Public()}, nil
}

func (a *Accounts) EditUser(ctx context.Context, in *domain.UpdateUserRequest) (*UserResponse, error) {
	me, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := a.users.Update(ctx, me.Name, *in)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: u}, nil
}

func (a *Accounts) DeleteUser(ctx context.Context, in *domain.DeleteUserRequest) (*Empty, error) {
	me, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.users.Delete(ctx, me.Name, in.Password); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// caller is the user the interceptor resolved for this call.
func caller(ctx context.Context) (*domain.User, error) {
	u, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("no authenticated caller: %w", domain.ErrUnauthorized)
	}
	return u, nil
}
