package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamforge-labs/streamforge-go/internal/credentials"
	"github.com/streamforge-labs/streamforge-go/internal/launch"
	"github.com/streamforge-labs/streamforge-go/internal/ledger"
	"github.com/streamforge-labs/streamforge-go/internal/platform/auth"
	"github.com/streamforge-labs/streamforge-go/internal/platform/cluster"
	"github.com/streamforge-labs/streamforge-go/internal/provision"
)

// containerWorkDir is the working directory of a launched container; the
// classpath wildcard is anchored there.
const containerWorkDir = "."

type containerSubmitter interface {
	SubmitContainer(ctx context.Context, sub cluster.ContainerSubmission) (cluster.ContainerHandle, error)
}

type launcherAPI struct {
	logger      *slog.Logger
	db          *sql.DB
	profile     launch.Profile
	provisioner *provision.Provisioner
	delegation  credentials.DelegationTokenSource
	userTokens  credentials.UserTokenSource
	cluster     containerSubmitter
}

func newLauncherAPI(
	logger *slog.Logger,
	db *sql.DB,
	profile launch.Profile,
	provisioner *provision.Provisioner,
	delegation credentials.DelegationTokenSource,
	userTokens credentials.UserTokenSource,
	submitter containerSubmitter,
) *launcherAPI {
	return &launcherAPI{
		logger:      logger,
		db:          db,
		profile:     profile,
		provisioner: provisioner,
		delegation:  delegation,
		userTokens:  userTokens,
		cluster:     submitter,
	}
}

func (api *launcherAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /launches", api.handleCreateLaunch)
	mux.HandleFunc("GET /launches", api.handleListLaunches)
}

type createLaunchRequest struct {
	AppID          string            `json:"app_id"`
	Artifacts      []string          `json:"artifacts"`
	MemoryBudgetMB int               `json:"memory_budget_mb,omitempty"`
	Environment    map[string]string `json:"environment,omitempty"`
}

type launchResponse struct {
	LaunchID       string    `json:"launch_id"`
	AppID          string    `json:"app_id"`
	ContainerID    string    `json:"container_id,omitempty"`
	State          string    `json:"state,omitempty"`
	MemoryBudgetMB int       `json:"memory_budget_mb"`
	HeapLimitMB    int       `json:"heap_limit_mb"`
	Resources      []string  `json:"resources"`
	RequestedBy    string    `json:"requested_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func (api *launcherAPI) handleCreateLaunch(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	var req createLaunchRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	appID := strings.TrimSpace(req.AppID)
	if appID == "" {
		api.writeError(w, r, http.StatusBadRequest, "app_id_required")
		return
	}
	if len(req.Artifacts) == 0 {
		api.writeError(w, r, http.StatusBadRequest, "artifacts_required")
		return
	}

	memoryBudgetMB := api.profile.MemoryBudgetMB
	if req.MemoryBudgetMB > 0 {
		memoryBudgetMB = req.MemoryBudgetMB
	}
	heapLimitMB := launch.ComputeHeapLimit(memoryBudgetMB, api.profile.HeapCutoffRatio, api.profile.HeapLimitCapMB)

	base := make(map[string]string, len(api.profile.BaseEnvironment)+len(req.Environment))
	for k, v := range api.profile.BaseEnvironment {
		base[k] = v
	}
	for k, v := range req.Environment {
		base[k] = v
	}
	environment := launch.ComposeEnvironment(base, launch.ClasspathAppends(containerWorkDir, api.profile.ClasspathEntries))

	builder := launch.NewBuilder(memoryBudgetMB, heapLimitMB).WithEnvironment(environment)
	resourceKeys := make([]string, 0, len(req.Artifacts))
	for _, artifact := range req.Artifacts {
		desc, err := api.provisioner.Provision(r.Context(), artifact, appID)
		if err != nil {
			api.logger.Error("artifact provisioning failed", "app_id", appID, "artifact", artifact, "error", err)
			api.writeError(w, r, http.StatusBadGateway, "provision_failed")
			return
		}
		builder.AddResource(desc)
		resourceKeys = append(resourceKeys, desc.Location)
	}

	blob, err := credentials.Bundle(r.Context(), api.logger, api.profile.TokenStoragePaths, api.delegation, api.userTokens)
	if err != nil {
		api.logger.Error("credential bundling failed", "app_id", appID, "error", err)
		api.writeError(w, r, http.StatusBadGateway, "credentials_failed")
		return
	}

	spec, err := builder.WithCredentials(blob).Build()
	if err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_launch")
		return
	}

	handle, err := api.cluster.SubmitContainer(r.Context(), submissionFromSpec(appID, spec))
	if err != nil {
		api.logger.Error("container submission failed", "app_id", appID, "error", err)
		api.writeError(w, r, http.StatusBadGateway, "cluster_rejected")
		return
	}

	launchID := uuid.NewString()
	createdAt, err := ledger.Insert(r.Context(), api.db, ledger.Launch{
		LaunchID:       launchID,
		AppID:          appID,
		RequestedBy:    identity.Subject,
		MemoryBudgetMB: spec.MemoryBudgetMB,
		HeapLimitMB:    spec.HeapLimitMB,
		ResourceKeys:   resourceKeys,
	})
	if err != nil {
		// the container is already running; losing its record is worse
		// than a duplicate row ever could be
		api.logger.Error("launch record insert failed", "app_id", appID, "launch_id", launchID, "container_id", handle.ContainerID, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "ledger_failed")
		return
	}

	api.writeJSON(w, http.StatusCreated, launchResponse{
		LaunchID:       launchID,
		AppID:          appID,
		ContainerID:    handle.ContainerID,
		State:          handle.State,
		MemoryBudgetMB: spec.MemoryBudgetMB,
		HeapLimitMB:    spec.HeapLimitMB,
		Resources:      resourceKeys,
		RequestedBy:    identity.Subject,
		CreatedAt:      createdAt,
	})
}

func (api *launcherAPI) handleListLaunches(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(parseIntQuery(r, "limit", 100), 1, 500)

	launches, err := ledger.List(r.Context(), api.db, limit)
	if err != nil {
		api.logger.Error("list launches failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	out := make([]launchResponse, 0, len(launches))
	for _, l := range launches {
		out = append(out, launchResponse{
			LaunchID:       l.LaunchID,
			AppID:          l.AppID,
			MemoryBudgetMB: l.MemoryBudgetMB,
			HeapLimitMB:    l.HeapLimitMB,
			Resources:      l.ResourceKeys,
			RequestedBy:    l.RequestedBy,
			CreatedAt:      l.CreatedAt,
		})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"launches": out})
}

func submissionFromSpec(appID string, spec launch.Spec) cluster.ContainerSubmission {
	refs := make([]cluster.ResourceRef, 0, len(spec.Resources))
	for _, desc := range spec.Resources {
		refs = append(refs, cluster.ResourceRef{
			Location:           desc.Location,
			SizeBytes:          desc.SizeBytes,
			LastModifiedMillis: desc.LastModified.UnixMilli(),
			Visibility:         string(desc.Visibility),
			Type:               string(desc.Type),
		})
	}
	return cluster.ContainerSubmission{
		AppID:          appID,
		MemoryBudgetMB: spec.MemoryBudgetMB,
		HeapLimitMB:    spec.HeapLimitMB,
		Environment:    spec.Environment,
		Resources:      refs,
		Credentials:    spec.Credentials,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 4<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *launcherAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *launcherAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
