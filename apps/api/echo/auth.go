package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/LeoRoessmann/KT-course/core"
	"github.com/LeoRoessmann/KT-course/core/launcher"
)

const (
	tokenContextKey   = "instructorToken"
	instructorSubject = "instructor"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Instructor bool `json:"instructor,omitempty"`
}

// newJWTConfig returns the JWT auth middleware config for conf.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.Server.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func NewInstructorClaims(conf *core.Config, now time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   instructorSubject,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Instructor: true,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtConf.SigningMethod), claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// instructorMiddleware requires a valid instructor token while instructor
// mode is on. Removing the key file revokes every issued token.
func instructorMiddleware(jwtConf middleware.JWTConfig, key *launcher.InstructorKey) echo.MiddlewareFunc {
	jwt := middleware.JWTWithConfig(jwtConf)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwt(func(ctx echo.Context) error {
			if !key.Enabled() {
				return errInstructorDisabled
			}
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !claims.Instructor {
				return errHttpForbidden
			}
			return next(ctx)
		})
	}
}

type instructorApi struct {
	deps ServerDeps
}

func registerInstructorAPI(g *echo.Group, jwtConf middleware.JWTConfig, deps ServerDeps) {
	api := instructorApi{deps: deps}

	ig := g.Group("/instructor")
	ig.GET("", api.status)
	ig.POST("/login", api.login)
	ig.POST("/token-refresh", api.refreshToken, instructorMiddleware(jwtConf, deps.Key))
}

func (api *instructorApi) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, InstructorStatus{Enabled: api.deps.Key.Enabled()})
}

func (api *instructorApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	if !api.deps.Key.Enabled() {
		return errInstructorDisabled
	}
	if !api.deps.Key.Verify(data.Key) {
		api.deps.Logger.Warn("instructor login failed", nil, core.Fields{"remote": ctx.RealIP()})
		return errAuthenticationFailed
	}
	return api.respondToken(ctx)
}

func (api *instructorApi) refreshToken(ctx echo.Context) error {
	return api.respondToken(ctx)
}

func (api *instructorApi) respondToken(ctx echo.Context) error {
	token, err := GenerateToken(api.deps.Conf, NewInstructorClaims(api.deps.Conf, time.Now()))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
