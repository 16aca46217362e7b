package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/eventbook/eventbook/internal/app"
	"github.com/eventbook/eventbook/internal/logger"
	internalhttp "github.com/eventbook/eventbook/internal/server/http"
	sqlstorage "github.com/eventbook/eventbook/internal/storage/sql"
	"github.com/eventbook/eventbook/internal/storagebuilder"
)

var (
	httpServerHost = "127.0.0.1"
	httpServerPort = 9005
	pgHost         = "127.0.0.1"
	pgPort         = 5432
	pgDatabase     = "testing"
	pgUsername     = "postgres"
	pgPassword     = "pas"
	storageType    = "memory"
	serverURL      = ""
)

func TestMain(m *testing.M) {
	logger.PrepareLogger(logger.Config{Level: "ERROR"})

	port := os.Getenv("TEST_HTTP_SERVER_PORT")
	if port != "" {
		httpServerPort, _ = strconv.Atoi(port)
	}

	host := os.Getenv("TEST_POSTGRES_HOST")
	if host != "" {
		pgHost = host
	}
	port = os.Getenv("TEST_POSTGRES_PORT")
	if port != "" {
		var err error
		pgPort, err = strconv.Atoi(port)
		if err != nil {
			log.Printf("failed to parse port '%s': %v", port, err)
			os.Exit(-1)
		}
	}

	storage := os.Getenv("TEST_STORAGE_TYPE")
	if storage != "" {
		storageType = storage
	}

	serverURL = fmt.Sprintf("http://%s", net.JoinHostPort(httpServerHost, strconv.Itoa(httpServerPort)))

	cleanupDB()
	code := m.Run()
	os.Exit(code)
}

type apiResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Pagination *struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
	} `json:"pagination"`
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type eventPayload struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	MaxCapacity int    `json:"max_capacity"`
}

func TestEventsAPI(t *testing.T) {
	t.Run("create fetch update", func(t *testing.T) {
		startServer(t)

		start := time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)
		end := start.Add(8 * time.Hour)
		body := map[string]any{
			"name":         "PyCon India",
			"location":     "Bangalore",
			"start_time":   start.Format(time.RFC3339),
			"end_time":     end.Format(time.RFC3339),
			"max_capacity": 100,
		}

		resp := sendRequest(t, "POST", "/events/", body, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := parseResponse(t, resp)
		require.True(t, created.Success)
		require.Equal(t, "Event created successfully.", created.Message)

		var event eventPayload
		require.NoError(t, json.Unmarshal(created.Data, &event))
		require.NotZero(t, event.ID)
		require.Equal(t, start.Format("2006-01-02 15:04:05"), event.StartTime)

		getResp := sendRequest(t, "GET", fmt.Sprintf("/events/%d/", event.ID), nil, nil)
		defer getResp.Body.Close()
		require.Equal(t, http.StatusOK, getResp.StatusCode)

		fetched := parseResponse(t, getResp)
		var got eventPayload
		require.NoError(t, json.Unmarshal(fetched.Data, &got))
		require.Equal(t, "PyCon India", got.Name)
		require.Equal(t, "Bangalore", got.Location)
		require.Equal(t, 100, got.MaxCapacity)

		body["location"] = "Pune"
		updResp := sendRequest(t, "PUT", fmt.Sprintf("/events/%d/", event.ID), body, nil)
		defer updResp.Body.Close()
		require.Equal(t, http.StatusOK, updResp.StatusCode)
		require.Equal(t, "Event updated successfully.", parseResponse(t, updResp).Message)

		getResp = sendRequest(t, "GET", fmt.Sprintf("/events/%d/", event.ID), nil, nil)
		defer getResp.Body.Close()
		require.NoError(t, json.Unmarshal(parseResponse(t, getResp).Data, &got))
		require.Equal(t, "Pune", got.Location)
	})

	t.Run("timezone header", func(t *testing.T) {
		startServer(t)

		body := map[string]any{
			"name":         "Timezone Summit",
			"location":     "Mumbai",
			"start_time":   "2300-06-12T10:30:00",
			"end_time":     "2300-06-12T18:00:00",
			"max_capacity": 10,
		}

		resp := sendRequest(t, "POST", "/events/", body, map[string]string{"X-Timezone": "Asia/Kolkata"})
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var event eventPayload
		require.NoError(t, json.Unmarshal(parseResponse(t, resp).Data, &event))
		require.Equal(t, "2300-06-12 10:30:00", event.StartTime)

		getResp := sendRequest(t, "GET", fmt.Sprintf("/events/%d/", event.ID), nil, nil)
		defer getResp.Body.Close()
		var got eventPayload
		require.NoError(t, json.Unmarshal(parseResponse(t, getResp).Data, &got))
		require.Equal(t, "2300-06-12 05:00:00", got.StartTime)
	})

	t.Run("validation errors", func(t *testing.T) {
		startServer(t)

		body := map[string]any{
			"name":         "Past Event",
			"location":     "Delhi",
			"start_time":   "2020-01-01T10:00:00",
			"end_time":     "2020-01-01T18:00:00",
			"max_capacity": 10,
		}

		resp := sendRequest(t, "POST", "/events/", body, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		parsed := parseResponse(t, resp)
		require.False(t, parsed.Success)
		require.Equal(t, "Failed to create event. Please correct the input data and try again.", parsed.Message)

		fields := map[string][]string{}
		require.NoError(t, json.Unmarshal(parsed.Errors, &fields))
		require.Equal(t, []string{"Start time must be in the future."}, fields["start_time"])
	})

	t.Run("not found", func(t *testing.T) {
		startServer(t)

		resp := sendRequest(t, "GET", "/events/999999/", nil, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		parsed := parseResponse(t, resp)
		require.False(t, parsed.Success)
		require.Equal(t, "Sorry, event not found. Please check the event ID and try again.", parsed.Message)
	})

	t.Run("pagination links walk", func(t *testing.T) {
		startServer(t)

		start := time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)
		for i := 0; i < 12; i++ {
			body := map[string]any{
				"name":         fmt.Sprintf("Meetup %02d", i),
				"location":     "Chennai",
				"start_time":   start.Format(time.RFC3339),
				"end_time":     start.Add(time.Hour).Format(time.RFC3339),
				"max_capacity": 5,
			}
			resp := sendRequest(t, "POST", "/events/", body, nil)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			resp.Body.Close()
		}

		resp := sendRequest(t, "GET", "/events/", nil, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		first := parseResponse(t, resp)
		require.Equal(t, 12, first.Pagination.Count)
		require.Nil(t, first.Pagination.Previous)
		require.NotNil(t, first.Pagination.Next)

		var events []eventPayload
		require.NoError(t, json.Unmarshal(first.Data, &events))
		require.Len(t, events, 10)

		nextResp := sendRequestURL(t, "GET", *first.Pagination.Next, nil, nil)
		defer nextResp.Body.Close()
		require.Equal(t, http.StatusOK, nextResp.StatusCode)

		second := parseResponse(t, nextResp)
		require.Nil(t, second.Pagination.Next)
		require.NotNil(t, second.Pagination.Previous)
		require.NoError(t, json.Unmarshal(second.Data, &events))
		require.Len(t, events, 2)
	})
}

func TestRegistrationAPI(t *testing.T) {
	t.Run("capacity flow", func(t *testing.T) {
		startServer(t)

		eventID := createAPIEvent(t, "Tiny Workshop", 2)

		for i, email := range []string{"alice@example.com", "bob@example.com"} {
			resp := sendRequest(t, "POST", fmt.Sprintf("/events/%d/register/", eventID),
				map[string]any{"name": fmt.Sprintf("Guest %d", i), "email": email}, nil)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			require.Equal(t, "Attendee registered successfully!", parseResponse(t, resp).Message)
			resp.Body.Close()
		}

		resp := sendRequest(t, "POST", fmt.Sprintf("/events/%d/register/", eventID),
			map[string]any{"name": "Carol", "email": "carol@example.com"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Sorry, event is full. New attendees can not be registered.", parseResponse(t, resp).Message)

		listResp := sendRequest(t, "GET", fmt.Sprintf("/events/%d/attendees/", eventID), nil, nil)
		defer listResp.Body.Close()
		parsed := parseResponse(t, listResp)
		require.Equal(t, 2, parsed.Pagination.Count)
		require.Equal(t, "Event attendees fetched successfully.", parsed.Message)
	})

	t.Run("duplicate email", func(t *testing.T) {
		startServer(t)

		eventID := createAPIEvent(t, "Duplicate Check", 10)

		resp := sendRequest(t, "POST", fmt.Sprintf("/events/%d/register/", eventID),
			map[string]any{"name": "John", "email": "john@example.com"}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = sendRequest(t, "POST", fmt.Sprintf("/events/%d/register/", eventID),
			map[string]any{"name": "John Again", "email": "john@example.com"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t,
			"Attendee already registered for this event. Please try with the different email.",
			parseResponse(t, resp).Message)
	})

	t.Run("unknown event", func(t *testing.T) {
		startServer(t)

		resp := sendRequest(t, "POST", "/events/424242/register/",
			map[string]any{"name": "Ghost", "email": "ghost@example.com"}, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "Event does not exist. Please check the input data and try again.", parseResponse(t, resp).Message)
	})
}

func createAPIEvent(t *testing.T, name string, capacity int) int64 {
	t.Helper()

	start := time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)
	body := map[string]any{
		"name":         name,
		"location":     "Hyderabad",
		"start_time":   start.Format(time.RFC3339),
		"end_time":     start.Add(2 * time.Hour).Format(time.RFC3339),
		"max_capacity": capacity,
	}

	resp := sendRequest(t, "POST", "/events/", body, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var event eventPayload
	require.NoError(t, json.Unmarshal(parseResponse(t, resp).Data, &event))
	return event.ID
}

func parseResponse(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read body")

	var parsed apiResponse
	require.NoError(t, json.Unmarshal(body, &parsed), "failed to parse body %q", string(body))
	return parsed
}

func sendRequest(t *testing.T, method string, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	return sendRequestURL(t, method, serverURL+path, body, headers)
}

func sendRequestURL(t *testing.T, method string, url string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var requestBody []byte
	if body != nil {
		var err error
		requestBody, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequestWithContext(
		context.Background(),
		method,
		url,
		bytes.NewBuffer(requestBody),
	)
	require.NoError(t, err, "failed to build request")
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to send request")
	return resp
}

func startServer(t *testing.T) {
	t.Helper()

	storage, err := storagebuilder.New(storagebuilder.Config{
		StorageType: storageType,
		Database: sqlstorage.Config{
			Host:     pgHost,
			Port:     pgPort,
			Database: pgDatabase,
			Username: pgUsername,
			Password: pgPassword,
		},
	})
	require.NoError(t, err, "failed to create storage")

	eventbook := app.New(storage)
	httpServer := internalhttp.NewServer(internalhttp.Config{
		Host: httpServerHost,
		Port: httpServerPort,
	}, eventbook)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		httpServer.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		req, err := http.NewRequestWithContext(ctx, "GET", serverURL+"/events/", nil)
		if err != nil {
			return false
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 200*time.Millisecond)

	t.Cleanup(func() {
		cancel()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer stopCancel()
		httpServer.Stop(stopCtx)
		storage.Close(stopCtx)
		require.NoError(t, cleanupDB())
	})
}

func cleanupDB() error {
	if storageType != "sql" {
		return nil
	}
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			pgHost,
			pgPort,
			pgDatabase,
			pgUsername,
			pgPassword,
		),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("TRUNCATE TABLE events CASCADE")
	if err != nil {
		return err
	}
	return err
}
