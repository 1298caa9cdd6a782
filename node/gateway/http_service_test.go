package gateway

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cryptex-node/fingerprint"
	"cryptex-node/node/config"
	"cryptex-node/node/vault"
	"cryptex-node/types"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

const (
	testOwner    = "0xaaa0000000000000000000000000000000000001"
	testClaimant = "0xbbb0000000000000000000000000000000000002"
)

type mockVault struct {
	registerResult *vault.RegisterResult
	verifyResult   *vault.VerifyResult
	transferResult *vault.TransferResult
	err            error
}

func (m *mockVault) Register(ctx context.Context, filename string, content []byte, owner string) (*vault.RegisterResult, error) {
	return m.registerResult, m.err
}

func (m *mockVault) Verify(ctx context.Context, filename string, content []byte, claimant string) (*vault.VerifyResult, error) {
	return m.verifyResult, m.err
}

func (m *mockVault) Transfer(ctx context.Context, fp string, currentOwner string, newOwner string) (*vault.TransferResult, error) {
	return m.transferResult, m.err
}

type mockCatalog struct {
	records map[string]*types.CatalogRecord
	blobs   map[string][]byte
}

func (m *mockCatalog) Put(ctx context.Context, record *types.CatalogRecord, content []byte) error {
	m.records[record.Fingerprint] = record
	m.blobs[record.Fingerprint] = content
	return nil
}

func (m *mockCatalog) GetByFingerprint(ctx context.Context, fp string) (*types.CatalogRecord, error) {
	record, ok := m.records[fp]
	if !ok {
		return nil, types.Wrapf(types.ErrRecordNotFound, "fingerprint %s", fp)
	}
	return record, nil
}

func (m *mockCatalog) GetContent(ctx context.Context, fp string) ([]byte, error) {
	content, ok := m.blobs[fp]
	if !ok {
		return nil, types.Wrapf(types.ErrRecordNotFound, "fingerprint %s", fp)
	}
	return content, nil
}

func (m *mockCatalog) ListByOwner(ctx context.Context, owner string) ([]types.CatalogRecord, error) {
	records := make([]types.CatalogRecord, 0)
	for _, record := range m.records {
		if record.Owner == strings.ToLower(owner) {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (m *mockCatalog) UpdateOwner(ctx context.Context, fp string, newOwner string) error {
	record, ok := m.records[fp]
	if !ok {
		return types.Wrapf(types.ErrRecordNotFound, "fingerprint %s", fp)
	}
	record.Owner = newOwner
	return nil
}

type mockActivity struct {
	entries []types.ActivityEntry
}

func (m *mockActivity) Append(ctx context.Context, entry *types.ActivityEntry) (int64, error) {
	entry.Seq = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return entry.Seq, nil
}

func (m *mockActivity) ListByAddress(ctx context.Context, address string, limit int) ([]types.ActivityEntry, error) {
	return m.entries, nil
}

type mockProfile struct {
	profiles map[string]*types.UserProfile
}

func (m *mockProfile) Upsert(ctx context.Context, address string, name string, email string) (*types.UserProfile, error) {
	profile := &types.UserProfile{Address: strings.ToLower(address), Name: name, Email: email}
	m.profiles[profile.Address] = profile
	return profile, nil
}

func (m *mockProfile) Get(ctx context.Context, address string) (*types.UserProfile, error) {
	profile, ok := m.profiles[strings.ToLower(address)]
	if !ok {
		return nil, types.Wrapf(types.ErrProfileNotFound, "address %s", address)
	}
	return profile, nil
}

type gatewayFixture struct {
	gateway  *HttpGateway
	vault    *mockVault
	catalog  *mockCatalog
	activity *mockActivity
	profile  *mockProfile
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	cfg := config.DefaultVaultNode()

	f := &gatewayFixture{
		vault:    &mockVault{},
		catalog:  &mockCatalog{records: map[string]*types.CatalogRecord{}, blobs: map[string][]byte{}},
		activity: &mockActivity{},
		profile:  &mockProfile{profiles: map[string]*types.UserProfile{}},
	}
	f.gateway = NewHttpGateway(&cfg.Api, f.vault, f.catalog, f.activity, f.profile)
	return f
}

func (f *gatewayFixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	rec := httptest.NewRecorder()
	f.gateway.Server.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echoContentType), "application/json") {
		require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

const echoContentType = "Content-Type"

func uploadRequest(t *testing.T, target string, filename string, content []byte, address string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("owner", address))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echoContentType, mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method string, target string, payload interface{}) *http.Request {
	body, err := jsoniter.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echoContentType, "application/json")
	return req
}

func TestRegisterCommittedResponse(t *testing.T) {
	f := newGatewayFixture(t)

	content := []byte("original artwork")
	fp := fingerprint.Calculate(content)
	f.vault.registerResult = &vault.RegisterResult{
		State: vault.RegisterCommitted,
		Record: &types.CatalogRecord{
			Id:          "c2f9e5b4-7c18-4d61-a2cb-000000000001",
			Fingerprint: fp.Hex(),
			Filename:    "art.png",
			Owner:       testOwner,
			CreatedAt:   time.Now().UTC(),
		},
	}

	rec, body := f.do(t, uploadRequest(t, "/api/v1/register", "art.png", content, testOwner))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, fp.Hex(), body["hash"])
	require.Contains(t, body["message"], "copyrighted successfully")
}

func TestRegisterAlreadyOwnedResponse(t *testing.T) {
	f := newGatewayFixture(t)
	f.vault.registerResult = &vault.RegisterResult{State: vault.RegisterAlreadyOwned, Owner: testClaimant}

	rec, body := f.do(t, uploadRequest(t, "/api/v1/register", "art.png", []byte("taken"), testOwner))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, testClaimant, body["owner"])
}

func TestRegisterWithoutFile(t *testing.T) {
	f := newGatewayFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("owner", testOwner))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", &buf)
	req.Header.Set(echoContentType, mw.FormDataContentType())

	rec, _ := f.do(t, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterLedgerUnavailable(t *testing.T) {
	f := newGatewayFixture(t)
	f.vault.err = types.Wrapf(types.ErrLedgerUnavailable, "connection refused")

	rec, _ := f.do(t, uploadRequest(t, "/api/v1/register", "art.png", []byte("content"), testOwner))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVerifyConfirmedIssuesToken(t *testing.T) {
	f := newGatewayFixture(t)

	content := []byte("verified content")
	fp := fingerprint.Calculate(content)
	f.vault.verifyResult = &vault.VerifyResult{
		State:       vault.VerifyConfirmed,
		Fingerprint: fp.Hex(),
		Record:      &types.CatalogRecord{Fingerprint: fp.Hex(), Filename: "doc.pdf", Owner: testOwner},
	}

	rec, body := f.do(t, uploadRequest(t, "/api/v1/verify", "doc.pdf", content, testOwner))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/api/v1/file/"+fp.Hex(), body["fileUrl"])

	token, ok := body["token"].(string)
	require.True(t, ok)
	require.True(t, f.gateway.verifyToken(token, fp.Hex()))
	require.False(t, f.gateway.verifyToken(token, fingerprint.Calculate([]byte("other")).Hex()))
}

func TestVerifyOwnedByOtherResponse(t *testing.T) {
	f := newGatewayFixture(t)

	content := []byte("someone else's content")
	fp := fingerprint.Calculate(content)
	f.vault.verifyResult = &vault.VerifyResult{
		State:       vault.VerifyOwnedByOther,
		Fingerprint: fp.Hex(),
		Owner:       testOwner,
	}

	rec, body := f.do(t, uploadRequest(t, "/api/v1/verify", "doc.pdf", content, testClaimant))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testOwner, body["owner"])
	require.Equal(t, fp.Hex(), body["hash"])
}

func TestVerifyNotRegisteredResponse(t *testing.T) {
	f := newGatewayFixture(t)
	f.vault.verifyResult = &vault.VerifyResult{State: vault.VerifyNotRegistered}

	rec, _ := f.do(t, uploadRequest(t, "/api/v1/verify", "doc.pdf", []byte("unknown"), testClaimant))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransferResponses(t *testing.T) {
	fp := fingerprint.Calculate([]byte("transferable")).Hex()
	payload := transferRequest{CurrentOwner: testOwner, NewOwner: testClaimant}

	cases := []struct {
		name   string
		result *vault.TransferResult
		code   int
	}{
		{"committed", &vault.TransferResult{State: vault.TransferCommitted, NewOwner: testClaimant}, http.StatusOK},
		{"unauthorized", &vault.TransferResult{State: vault.TransferUnauthorized}, http.StatusForbidden},
		{"not found", &vault.TransferResult{State: vault.TransferNotFound}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			f.vault.transferResult = tc.result

			rec, _ := f.do(t, jsonRequest(t, http.MethodPut, "/api/v1/transfer/"+fp, payload))
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestTransferRejectedByLedger(t *testing.T) {
	f := newGatewayFixture(t)
	f.vault.err = types.Wrapf(types.ErrLedgerRejected, "execution reverted")

	fp := fingerprint.Calculate([]byte("transferable")).Hex()
	payload := transferRequest{CurrentOwner: testOwner, NewOwner: testClaimant}

	rec, _ := f.do(t, jsonRequest(t, http.MethodPut, "/api/v1/transfer/"+fp, payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferInvalidFingerprint(t *testing.T) {
	f := newGatewayFixture(t)
	payload := transferRequest{CurrentOwner: testOwner, NewOwner: testClaimant}

	rec, _ := f.do(t, jsonRequest(t, http.MethodPut, "/api/v1/transfer/not-a-hash", payload))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAssetsByHeader(t *testing.T) {
	f := newGatewayFixture(t)

	fp := fingerprint.Calculate([]byte("asset")).Hex()
	f.catalog.records[fp] = &types.CatalogRecord{Fingerprint: fp, Filename: "asset.png", Owner: testOwner}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets", nil)
	req.Header.Set(ownerHeader, testOwner)

	rec := httptest.NewRecorder()
	f.gateway.Server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []types.CatalogRecord
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	require.Equal(t, fp, records[0].Fingerprint)
}

func TestListAssetsWithoutAddress(t *testing.T) {
	f := newGatewayFixture(t)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/assets", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadRequiresValidToken(t *testing.T) {
	f := newGatewayFixture(t)

	content := []byte("protected bytes")
	fp := fingerprint.Calculate(content).Hex()
	f.catalog.records[fp] = &types.CatalogRecord{Fingerprint: fp, Filename: "doc.pdf", Owner: testOwner}
	f.catalog.blobs[fp] = content

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/file/"+fp, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := f.gateway.GenerateToken(fp)
	require.NoError(t, err)

	rec, _ = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/file/"+fp+"?token="+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, content, rec.Body.Bytes())
	require.Contains(t, rec.Header().Get("Content-Disposition"), "doc.pdf")
}

func TestUserRoundtrip(t *testing.T) {
	f := newGatewayFixture(t)

	rec, body := f.do(t, jsonRequest(t, http.MethodPut, "/api/v1/users/"+testOwner, userRequest{Username: "Ada", Email: "ada@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body["user"])

	rec, body = f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+testOwner, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Ada", user["username"])
}

func TestUpsertUserInvalidAddress(t *testing.T) {
	f := newGatewayFixture(t)

	rec, _ := f.do(t, jsonRequest(t, http.MethodPut, "/api/v1/users/not-an-address", userRequest{Username: "Ada"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingUser(t *testing.T) {
	f := newGatewayFixture(t)

	rec, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+testClaimant, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListActivity(t *testing.T) {
	f := newGatewayFixture(t)
	f.activity.entries = []types.ActivityEntry{
		{Seq: 1, Kind: types.ActivityRegister, Asset: "art.png", Outcome: types.OutcomeSuccess, Address: testOwner},
	}

	rec, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/activity/"+testOwner, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries, ok := body["activities"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
}
