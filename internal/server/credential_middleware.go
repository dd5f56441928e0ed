package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jacksonlee411/payroll-approvals/internal/routing"
	"github.com/jacksonlee411/payroll-approvals/modules/payrollreview/domain/types"
)

// DashboardClaims are the identity claims of the dashboard's bearer token.
type DashboardClaims struct {
	CompanyUserID string `json:"company_user_id"`
	CompanyID     string `json:"company_id"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// SignDashboardToken issues an HS256 token the credential middleware accepts.
func SignDashboardToken(secret string, claims DashboardClaims) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("server: missing JWT_SECRET")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type credentialVerifier interface {
	Verify(token string) (types.Credential, error)
}

type jwtVerifier struct {
	secret []byte
}

func newJWTVerifier(secret string) (*jwtVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("server: missing JWT_SECRET")
	}
	return &jwtVerifier{secret: []byte(secret)}, nil
}

// Verify checks an HS256 token and returns it as the credential forwarded
// to the payroll service.
func (v *jwtVerifier) Verify(token string) (types.Credential, error) {
	claims := &DashboardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return types.Credential{}, err
	}
	if !parsed.Valid {
		return types.Credential{}, errors.New("server: invalid token")
	}
	if strings.TrimSpace(claims.CompanyUserID) == "" || strings.TrimSpace(claims.CompanyID) == "" {
		return types.Credential{}, errors.New("server: token missing identity claims")
	}
	return types.Credential{
		Token:         token,
		CompanyID:     strings.TrimSpace(claims.CompanyID),
		CompanyUserID: strings.TrimSpace(claims.CompanyUserID),
		Role:          types.Role(strings.ToUpper(strings.TrimSpace(claims.Role))),
	}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func withBearerCredential(classifier *routing.Classifier, verifier credentialVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}
		if rc != routing.RouteClassInternalAPI && rc != routing.RouteClassPublicAPI {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "auth_required", "please log in again")
			return
		}
		cred, err := verifier.Verify(token)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "auth_required", "please log in again")
			return
		}
		next.ServeHTTP(w, r.WithContext(withCredential(r.Context(), cred)))
	})
}
