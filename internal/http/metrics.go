package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniproj_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})

	authzDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uniproj_authz_denials_total",
		Help: "Requests rejected by the authorization gate.",
	}, []string{"reason"})
)
