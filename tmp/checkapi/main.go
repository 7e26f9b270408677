package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/golang-jwt/jwt/v5"

	"todoline/internal/db"
	"todoline/internal/engine"
	"todoline/internal/migrate"
	"todoline/internal/repo"
	"todoline/internal/server"
)

func main() {
	workspace := "/tmp/todoline-check"
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		panic(err)
	}
	e := engine.New(repo.Repo{DB: conn})
	jwtSecret := "test-secret"
	h, err := server.New(server.Config{Engine: e, BasePath: "/v1", Auth: server.AuthConfig{JWTSecret: jwtSecret}})
	if err != nil {
		panic(err)
	}
	ts := httptest.NewServer(h)
	defer ts.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "tester"}).SignedString([]byte(jwtSecret))
	if err != nil {
		panic(err)
	}

	body := map[string]any{
		"title":                "Needs analytics",
		"priority":             "high",
		"complianceFrameworks": []string{"SOC2"},
	}
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/v1/todos", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	var created any
	_ = json.NewDecoder(res.Body).Decode(&created)
	res.Body.Close()
	fmt.Printf("create status=%d resp=%v\n", res.StatusCode, created)

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v1/todos/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()
	var analytics any
	_ = json.NewDecoder(res.Body).Decode(&analytics)
	fmt.Printf("analytics status=%d resp=%v\n", res.StatusCode, analytics)
}
