package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	Auth       string          `json:"auth"`
	Body       json.RawMessage `json:"body,omitempty"`
	WantStatus int             `json:"want_status"`
	WantError  string          `json:"want_error,omitempty"`
	Critical   bool            `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type result struct {
	Target      target
	Status      int
	ErrorCode   string
	StatusMatch bool
	CodeMatch   bool
	Err         error
	Duration    time.Duration
}

func main() {
	var (
		base          string
		targetsPath   string
		adminEmail    string
		adminPassword string
		timeout       time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "smoke_check", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&adminEmail, "admin-email", "admin@serc.res.in", "Staff account used for admin targets")
	flag.StringVar(&adminPassword, "admin-password", os.Getenv("ADMIN_PASSWORD"), "Staff account password")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	tokens := map[string]string{}
	if adminPassword != "" {
		token, err := login(client, base, adminEmail, adminPassword)
		if err != nil {
			log.Fatalf("admin login failed: %v", err)
		}
		tokens["admin"] = token
	}

	var (
		results      []result
		breaking     int
		optionalDiff int
	)
	for _, t := range targets {
		res := check(client, base, t, tokens)
		if res.Err != nil || !res.StatusMatch || !res.CodeMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking failures: %d, Optional failures: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func login(client *http.Client, base, email, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, _, err := performRequest(client, base, target{Method: http.MethodPost, Path: "/api/v1/auth/login", Body: payload}, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if env.Data.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return env.Data.AccessToken, nil
}

func check(client *http.Client, base string, tgt target, tokens map[string]string) result {
	res := result{Target: tgt}
	token := ""
	if tgt.Auth != "" {
		var ok bool
		if token, ok = tokens[tgt.Auth]; !ok {
			res.Err = fmt.Errorf("no credentials for auth %q", tgt.Auth)
			return res
		}
	}

	resp, dur, err := performRequest(client, base, tgt, token)
	res.Duration = dur
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	res.StatusMatch = tgt.WantStatus == 0 || res.Status == tgt.WantStatus

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("read body: %w", err)
		return res
	}
	res.ErrorCode = errorCode(body)
	res.CodeMatch = tgt.WantError == "" || res.ErrorCode == tgt.WantError
	return res
}

func performRequest(client *http.Client, base string, tgt target, token string) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(base, "/") + path

	var body io.Reader
	if len(tgt.Body) > 0 {
		body = bytes.NewReader(tgt.Body)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func errorCode(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.CodeMatch {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s (%s)\n", status, res.Target.Method, res.Target.Path, res.Duration)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  Status: %d (want %d) | Error code: %q (want %q) | Critical: %t\n",
			res.Status, res.Target.WantStatus, res.ErrorCode, res.Target.WantError, res.Target.Critical)
	}
}
