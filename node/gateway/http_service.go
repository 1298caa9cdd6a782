package gateway

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"cryptex-node/fingerprint"
	"cryptex-node/node/activity"
	"cryptex-node/node/catalog"
	"cryptex-node/node/config"
	"cryptex-node/node/profile"
	"cryptex-node/node/vault"
	"cryptex-node/types"
	"cryptex-node/utils"

	"github.com/golang-jwt/jwt"
	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logging.Logger("gateway")

var secret = []byte("Cryptex Vault")

const ownerHeader = "X-Vault-Address"

// HttpGateway hosts the request boundary: it validates inputs, runs the
// coordinator workflows and maps their outcomes to responses.
type HttpGateway struct {
	Cfg    *config.Api
	Server *echo.Echo

	vaultSvc    vault.VaultSvcApi
	catalogSvc  catalog.CatalogSvcApi
	activitySvc activity.ActivitySvcApi
	profileSvc  profile.ProfileSvcApi
}

type jwtClaims struct {
	Key string `json:"key"`
	jwt.StandardClaims
}

func NewHttpGateway(cfg *config.Api, vaultSvc vault.VaultSvcApi, catalogSvc catalog.CatalogSvcApi, activitySvc activity.ActivitySvcApi, profileSvc profile.ProfileSvcApi) *HttpGateway {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if cfg.EnableHttpLog {
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
	}

	g := &HttpGateway{
		Cfg:         cfg,
		Server:      e,
		vaultSvc:    vaultSvc,
		catalogSvc:  catalogSvc,
		activitySvc: activitySvc,
		profileSvc:  profileSvc,
	}

	v1 := e.Group("/api/v1")
	v1.POST("/register", g.register)
	v1.GET("/assets", g.listAssets)
	v1.POST("/verify", g.verify)
	v1.PUT("/transfer/:hash", g.transfer)
	v1.GET("/file/:hash", g.downloadFile)
	v1.PUT("/users/:address", g.upsertUser)
	v1.GET("/users/:address", g.getUser)
	v1.GET("/activity/:address", g.listActivity)

	return g
}

func (g *HttpGateway) Start() {
	go func() {
		err := g.Server.Start(g.Cfg.HttpServerAddress)
		if err != nil {
			if strings.Contains(err.Error(), "Server closed") {
				log.Info("stopping http gateway...")
			} else {
				log.Error(err.Error())
			}
		}
	}()
	log.Infof("http gateway listens on %s", g.Cfg.HttpServerAddress)
}

func (g *HttpGateway) Stop(ctx context.Context) error {
	return g.Server.Shutdown(ctx)
}

// GenerateToken signs a short-lived download token for a fingerprint.
func (g *HttpGateway) GenerateToken(fp string) (string, error) {
	claims := &jwtClaims{
		fp,
		jwt.StandardClaims{
			ExpiresAt: time.Now().Add(g.Cfg.TokenPeriod).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (g *HttpGateway) verifyToken(tokenStr string, fp string) bool {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return false
	}
	return claims.Key == fp
}

// readUpload pulls the multipart file and an address form field out of the
// request. Missing or empty input never reaches the coordinator.
func readUpload(ec echo.Context, addressField string) (string, []byte, string, error) {
	fh, err := ec.FormFile("file")
	if err != nil {
		return "", nil, "", types.Wrapf(types.ErrInvalidParameters, "file is required")
	}
	address := ec.FormValue(addressField)
	if address == "" {
		return "", nil, "", types.Wrapf(types.ErrInvalidParameters, "%s address is required", addressField)
	}

	src, err := fh.Open()
	if err != nil {
		return "", nil, "", types.Wrap(types.ErrInvalidParameters, err)
	}
	defer src.Close() //nolint:errcheck

	content, err := io.ReadAll(src)
	if err != nil {
		return "", nil, "", types.Wrap(types.ErrInvalidParameters, err)
	}
	if len(content) == 0 {
		return "", nil, "", types.Wrapf(types.ErrInvalidParameters, "file is empty")
	}

	return fh.Filename, content, utils.NormalizeAddress(address), nil
}

func errorStatus(err error) int {
	switch {
	case types.ErrInvalidParameters.Is(err), types.ErrInvalidFingerprint.Is(err):
		return http.StatusBadRequest
	case types.ErrLedgerRejected.Is(err):
		return http.StatusBadRequest
	case types.ErrRecordNotFound.Is(err), types.ErrProfileNotFound.Is(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) echo.Map {
	return echo.Map{"error": err.Error()}
}

func (g *HttpGateway) register(ec echo.Context) error {
	filename, content, owner, err := readUpload(ec, "owner")
	if err != nil {
		return ec.JSON(http.StatusBadRequest, errorBody(err))
	}

	res, err := g.vaultSvc.Register(ec.Request().Context(), filename, content, owner)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	switch res.State {
	case vault.RegisterCommitted:
		return ec.JSON(http.StatusOK, echo.Map{
			"message":   "File copyrighted successfully!",
			"hash":      res.Record.Fingerprint,
			"id":        res.Record.Id,
			"createdAt": res.Record.CreatedAt,
		})
	case vault.RegisterAlreadyOwned:
		return ec.JSON(http.StatusBadRequest, echo.Map{
			"message": "This file is already copyrighted by: " + res.Owner,
			"owner":   res.Owner,
		})
	case vault.RegisterValidationFailed:
		return ec.JSON(http.StatusBadRequest, errorBody(types.ErrOwnershipValidationFailed))
	default:
		return ec.JSON(http.StatusInternalServerError, errorBody(types.ErrInvalidParameters))
	}
}

func (g *HttpGateway) listAssets(ec echo.Context) error {
	address := ec.Request().Header.Get(ownerHeader)
	if address == "" {
		address = ec.QueryParam("owner")
	}
	if address == "" {
		return ec.JSON(http.StatusBadRequest, echo.Map{"error": "owner address is required"})
	}

	records, err := g.catalogSvc.ListByOwner(ec.Request().Context(), address)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	return ec.JSON(http.StatusOK, records)
}

func (g *HttpGateway) verify(ec echo.Context) error {
	filename, content, claimant, err := readUpload(ec, "owner")
	if err != nil {
		return ec.JSON(http.StatusBadRequest, errorBody(err))
	}

	res, err := g.vaultSvc.Verify(ec.Request().Context(), filename, content, claimant)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	switch res.State {
	case vault.VerifyConfirmed:
		token, err := g.GenerateToken(res.Fingerprint)
		if err != nil {
			return ec.JSON(http.StatusInternalServerError, errorBody(err))
		}
		return ec.JSON(http.StatusOK, echo.Map{
			"message": "File ownership verified successfully! You own the copyright.",
			"fileUrl": "/api/v1/file/" + res.Fingerprint,
			"token":   token,
		})
	case vault.VerifyOwnedByOther:
		// informational: the claimant is simply not the owner
		return ec.JSON(http.StatusOK, echo.Map{
			"message": "This file is copyrighted to: " + res.Owner,
			"owner":   res.Owner,
			"hash":    res.Fingerprint,
		})
	case vault.VerifyCatalogMissing:
		return ec.JSON(http.StatusNotFound, errorBody(types.ErrCatalogInconsistency))
	case vault.VerifyNotRegistered:
		return ec.JSON(http.StatusNotFound, echo.Map{"message": "File not found on the ledger."})
	default:
		return ec.JSON(http.StatusInternalServerError, errorBody(types.ErrInvalidParameters))
	}
}

type transferRequest struct {
	CurrentOwner string `json:"currentOwner"`
	NewOwner     string `json:"newOwner"`
}

func (g *HttpGateway) transfer(ec echo.Context) error {
	var req transferRequest
	if err := ec.Bind(&req); err != nil {
		return ec.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.CurrentOwner == "" || req.NewOwner == "" {
		return ec.JSON(http.StatusBadRequest, echo.Map{"error": "both current and new owner addresses are required"})
	}

	hash := ec.Param("hash")
	if !fingerprint.IsHex(hash) {
		return ec.JSON(http.StatusBadRequest, errorBody(types.ErrInvalidFingerprint))
	}

	res, err := g.vaultSvc.Transfer(ec.Request().Context(), hash, req.CurrentOwner, req.NewOwner)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	switch res.State {
	case vault.TransferCommitted:
		return ec.JSON(http.StatusOK, echo.Map{
			"message":  "Ownership transferred successfully.",
			"newOwner": res.NewOwner,
		})
	case vault.TransferUnauthorized:
		return ec.JSON(http.StatusForbidden, echo.Map{"error": "You are not authorized to transfer ownership of this file."})
	case vault.TransferNotFound:
		return ec.JSON(http.StatusNotFound, echo.Map{"error": "file not found."})
	default:
		return ec.JSON(http.StatusInternalServerError, errorBody(types.ErrInvalidParameters))
	}
}

func (g *HttpGateway) downloadFile(ec echo.Context) error {
	hash := ec.Param("hash")
	if !fingerprint.IsHex(hash) {
		return ec.JSON(http.StatusBadRequest, errorBody(types.ErrInvalidFingerprint))
	}
	if !g.verifyToken(ec.QueryParam("token"), hash) {
		return ec.JSON(http.StatusUnauthorized, echo.Map{"error": "a valid download token is required"})
	}

	ctx := ec.Request().Context()
	record, err := g.catalogSvc.GetByFingerprint(ctx, hash)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}
	content, err := g.catalogSvc.GetContent(ctx, hash)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	ec.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+record.Filename+`"`)
	return ec.Blob(http.StatusOK, http.DetectContentType(content), content)
}

type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (g *HttpGateway) upsertUser(ec echo.Context) error {
	address := ec.Param("address")
	if !utils.IsValidAddress(address) {
		return ec.JSON(http.StatusBadRequest, echo.Map{"error": "a valid wallet address is required"})
	}

	var req userRequest
	if err := ec.Bind(&req); err != nil {
		return ec.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	user, err := g.profileSvc.Upsert(ec.Request().Context(), address, req.Username, req.Email)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	return ec.JSON(http.StatusOK, echo.Map{"message": "User saved successfully", "user": user})
}

func (g *HttpGateway) getUser(ec echo.Context) error {
	user, err := g.profileSvc.Get(ec.Request().Context(), ec.Param("address"))
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	return ec.JSON(http.StatusOK, echo.Map{"user": user})
}

func (g *HttpGateway) listActivity(ec echo.Context) error {
	entries, err := g.activitySvc.ListByAddress(ec.Request().Context(), ec.Param("address"), activity.DefaultListLimit)
	if err != nil {
		return ec.JSON(errorStatus(err), errorBody(err))
	}

	return ec.JSON(http.StatusOK, echo.Map{"activities": entries})
}
