// Package api provides AIStore API over HTTP(S) for the dataset adapters
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package api

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/NVIDIA/aisdataset/cmn/cos"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenExpired = errors.New("token expired")

// LoadToken reads an authentication token from the file; the file contains
// either the raw token or a JSON object with the "token" field
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "{") {
		var tk struct {
			Token string `json:"token"`
		}
		if err := cos.JSON.Unmarshal(b, &tk); err != nil {
			return "", fmt.Errorf("invalid token file %q: %w", path, err)
		}
		s = tk.Token
	}
	if s == "" {
		return "", fmt.Errorf("token file %q is empty", path)
	}
	return s, nil
}

// TokenExpired parses the token (without verifying its signature: that's the
// cluster's job) and returns ErrTokenExpired if the "exp" claim is in the past;
// tokens without "exp" never expire
func TokenExpired(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if exp != nil && exp.Before(time.Now()) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, exp.Format(time.RFC3339))
	}
	return nil
}
