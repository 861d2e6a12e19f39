package chinotest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Result     string          `json:"result"`
	ResultCode int             `json:"result_code"`
	Message    *string         `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func do(t *testing.T, req *http.Request) (int, response) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func newRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAuth_NoCustomer_PassThrough(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	code, env := do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/repositories", ""))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Result)
}

func TestAuth_MissingHeader_401(t *testing.T) {
	srv := NewServer(WithCustomer("cid", "ckey"))
	defer srv.Close()

	code, env := do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/repositories", ""))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error", env.Result)
	require.NotNil(t, env.Message)
	assert.Contains(t, *env.Message, "missing authorization")
}

func TestAuth_WrongCustomer_401(t *testing.T) {
	srv := NewServer(WithCustomer("cid", "ckey"))
	defer srv.Close()

	req := newRequest(t, http.MethodGet, srv.BaseURL()+"/repositories", "")
	req.SetBasicAuth("cid", "wrong")
	code, _ := do(t, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuth_UnknownBearer_401(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	req := newRequest(t, http.MethodGet, srv.BaseURL()+"/users/me", "")
	req.Header.Set("Authorization", "Bearer nope")
	code, _ := do(t, req)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuth_ValidCustomer_200(t *testing.T) {
	srv := NewServer(WithCustomer("cid", "ckey"))
	defer srv.Close()

	req := newRequest(t, http.MethodPost, srv.BaseURL()+"/repositories", `{"description":"clinic"}`)
	req.SetBasicAuth("cid", "ckey")
	code, env := do(t, req)
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Repository struct {
			ID          string `json:"repository_id"`
			Description string `json:"description"`
			IsActive    bool   `json:"is_active"`
		} `json:"repository"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Repository.ID)
	assert.Equal(t, "clinic", data.Repository.Description)
	assert.True(t, data.Repository.IsActive)
}

func TestToken_PasswordAndRefresh(t *testing.T) {
	srv := NewServer(WithApplication("app", "secret"))
	defer srv.Close()

	code, env := do(t, newRequest(t, http.MethodPost, srv.BaseURL()+"/user_schemas",
		`{"description":"patients","structure":{"fields":[{"name":"age","type":"integer","indexed":true}]}}`))
	require.Equal(t, http.StatusOK, code)
	var us struct {
		UserSchema struct {
			ID string `json:"user_schema_id"`
		} `json:"user_schema"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &us))

	code, _ = do(t, newRequest(t, http.MethodPost, srv.BaseURL()+"/user_schemas/"+us.UserSchema.ID+"/users",
		`{"username":"alice","password":"s3cretpass","attributes":{"age":30}}`))
	require.Equal(t, http.StatusOK, code)

	issue := func(form url.Values, secret string) (int, response) {
		req := newRequest(t, http.MethodPost, srv.BaseURL()+"/auth/token/", form.Encode())
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth("app", secret)
		return do(t, req)
	}

	code, _ = issue(url.Values{"grant_type": {"password"}, "username": {"alice"}, "password": {"s3cretpass"}}, "bad")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = issue(url.Values{"grant_type": {"password"}, "username": {"alice"}, "password": {"wrong"}}, "secret")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = issue(url.Values{"grant_type": {"password"}, "username": {"alice"}, "password": {"s3cretpass"}}, "secret")
	require.Equal(t, http.StatusOK, code)
	var tok token
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	assert.Equal(t, "Bearer", tok.TokenType)

	req := newRequest(t, http.MethodGet, srv.BaseURL()+"/users/me", "")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	code, env = do(t, req)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"username":"alice"`)
	assert.NotContains(t, string(env.Data), "s3cretpass")

	code, _ = issue(url.Values{"grant_type": {"refresh_token"}, "refresh_token": {tok.RefreshToken}}, "secret")
	assert.Equal(t, http.StatusOK, code)
	code, _ = issue(url.Values{"grant_type": {"refresh_token"}, "refresh_token": {tok.RefreshToken}}, "secret")
	assert.Equal(t, http.StatusUnauthorized, code, "refresh tokens are single use")
}

func TestFailures(t *testing.T) {
	srv := NewServer(WithFailures(2, http.StatusServiceUnavailable))
	defer srv.Close()

	for range 2 {
		code, env := do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/groups", ""))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "error", env.Result)
	}
	code, _ := do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/groups", ""))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, srv.Requests())
}

func TestNotFoundEnvelope(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	code, env := do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/documents/missing", ""))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, http.StatusNotFound, env.ResultCode)

	code, _ = do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/nothing/here", ""))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSearch_OverHTTP(t *testing.T) {
	srv := NewServer()
	defer srv.Close()

	code, env := do(t, newRequest(t, http.MethodPost, srv.BaseURL()+"/repositories", `{"description":"r"}`))
	require.Equal(t, http.StatusOK, code)
	var repo struct {
		Repository struct {
			ID string `json:"repository_id"`
		} `json:"repository"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &repo))

	code, env = do(t, newRequest(t, http.MethodPost, srv.BaseURL()+"/repositories/"+repo.Repository.ID+"/schemas",
		`{"description":"s","structure":{"fields":[
			{"name":"age","type":"integer","indexed":true},
			{"name":"notes","type":"text"}]}}`))
	require.Equal(t, http.StatusOK, code)
	var sc struct {
		Schema struct {
			ID string `json:"schema_id"`
		} `json:"schema"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sc))
	base := srv.BaseURL() + "/schemas/" + sc.Schema.ID

	for _, age := range []int{20, 35, 50} {
		body, _ := json.Marshal(map[string]any{"content": map[string]any{"age": age}})
		code, _ = do(t, newRequest(t, http.MethodPost, base+"/documents", string(body)))
		require.Equal(t, http.StatusOK, code)
	}
	code, _ = do(t, newRequest(t, http.MethodPost, base+"/documents", `{"content":{"age":"old"}}`))
	assert.Equal(t, http.StatusBadRequest, code, "content type checked")

	search := srv.BaseURL() + "/search/documents/" + sc.Schema.ID
	code, env = do(t, newRequest(t, http.MethodPost, search,
		`{"filterType":"and","resultType":"ONLY_ID","sort":[{"field":"age","order":"desc"}],"filter":[{"field":"age","type":"gte","value":30}]}`))
	require.Equal(t, http.StatusOK, code)
	var ids struct {
		TotalCount int      `json:"total_count"`
		IDs        []string `json:"IDs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ids))
	assert.Equal(t, 2, ids.TotalCount)
	assert.Len(t, ids.IDs, 2)

	code, _ = do(t, newRequest(t, http.MethodPost, search,
		`{"filterType":"and","resultType":"FULL_CONTENT","sort":[],"filter":[{"field":"notes","type":"eq","value":"x"}]}`))
	assert.Equal(t, http.StatusBadRequest, code, "not indexed")

	code, _ = do(t, newRequest(t, http.MethodPost, search,
		`{"filterType":"and","resultType":"FULL_CONTENT","sort":[],"filter":[{"field":"age","type":"between","value":1}]}`))
	assert.Equal(t, http.StatusBadRequest, code, "unknown operator")

	code, _ = do(t, newRequest(t, http.MethodPost, search,
		`{"filterType":"and","resultType":"USERNAME_EXISTS","sort":[],"filter":[]}`))
	assert.Equal(t, http.StatusBadRequest, code, "username check on documents")

	code, env = do(t, newRequest(t, http.MethodPost, search,
		`{"filterType":"or","resultType":"EXISTS","sort":[],"filter":[{"field":"age","type":"eq","value":99},{"field":"age","type":"eq","value":20}]}`))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"exists":true`)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	srv := NewServer(WithPrometheus(reg))
	defer srv.Close()

	code, _ := do(t, newRequest(t, http.MethodGet, srv.BaseURL()+"/collections", ""))
	require.Equal(t, http.StatusOK, code)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
