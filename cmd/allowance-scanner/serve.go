package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"

	"github.com/walletcore/allowance-scanner/allowance"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run a debug HTTP server exposing /discover, /reset and /metrics",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "listen", Value: ":8585", Usage: "listen address"},
		&cli.StringFlag{Name: "jwt-secret", Usage: "HMAC secret required on Authorization: Bearer headers; empty disables auth"},
		&cli.StringSliceFlag{Name: "cors-origin", Value: cli.NewStringSlice("*"), Usage: "allowed CORS origins"},
	},
	Action: runServe,
}

var (
	discoverRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allowance_scanner_discover_requests_total",
		Help: "Total number of /discover requests handled.",
	}, []string{"outcome"})
	discoverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "allowance_scanner_discover_duration_seconds",
		Help: "Duration of a /discover request end to end.",
	})
)

func runServe(c *cli.Context) error {
	a, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer a.Close()

	secret := []byte(c.String("jwt-secret"))
	if len(secret) == 0 {
		a.logger.Warn("serve: no jwt-secret configured, debug endpoints are unauthenticated")
	} else {
		token, err := issueAdminToken(secret)
		if err != nil {
			return fmt.Errorf("serve: issuing admin token: %w", err)
		}
		a.logger.Info("serve: admin bearer token", "token", token)
	}

	mux := http.NewServeMux()
	mux.Handle("/discover", authGuard(secret, discoverHandler(a)))
	mux.Handle("/reset", authGuard(secret, resetHandler(a)))
	mux.Handle("/metrics", promhttp.Handler())

	handler := cors.New(cors.Options{AllowedOrigins: c.StringSlice("cors-origin")}).Handler(mux)

	srv := &http.Server{Addr: c.String("listen"), Handler: handler}
	a.logger.Info("serve: listening", "addr", c.String("listen"))
	return srv.ListenAndServe()
}

type adminClaims struct {
	jwt.RegisteredClaims
}

func issueAdminToken(secret []byte) (string, error) {
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "allowance-scanner-admin",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// authGuard rejects requests missing a valid bearer token, unless secret is
// empty (auth disabled for local debugging).
func authGuard(secret []byte, next http.Handler) http.Handler {
	if len(secret) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.ParseWithClaims(raw, &adminClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func discoverHandler(a *app) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		resultCh := make(chan []allowance.Allowance, 1)
		a.scanner.Discover(ctx, func(found []allowance.Allowance) { resultCh <- found })

		select {
		case found := <-resultCh:
			discoverDuration.Observe(time.Since(start).Seconds())
			discoverRequests.WithLabelValues("ok").Inc()
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(found)
		case <-ctx.Done():
			discoverRequests.WithLabelValues("timeout").Inc()
			http.Error(w, "discover timed out", http.StatusGatewayTimeout)
		}
	})
}

func resetHandler(a *app) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.scanner.Reset()
		w.WriteHeader(http.StatusNoContent)
	})
}
