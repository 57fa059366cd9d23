package mcptools

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"certwatch/internal/backup"
	"certwatch/internal/models"
	"certwatch/internal/scan"

	"github.com/mark3labs/mcp-go/mcp"
)

type handlers struct {
	db     *sql.DB
	runner *scan.Runner
	bm     *backup.Manager
	dbPath string
}

func (h *handlers) listHosts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hosts, err := models.GetAllHosts(h.db)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list hosts: %v", err)), nil
	}

	var dtos []HostDTO
	for _, host := range hosts {
		dtos = append(dtos, HostToDTO(host))
	}
	return jsonResult(dtos)
}

func (h *handlers) listCertificates(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	certs, err := models.GetAllCertificates(h.db)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list certificates: %v", err)), nil
	}

	var hostIDFilter int
	if hid, ok := args["host_id"]; ok {
		hostIDFilter, _ = toInt(hid)
	}
	publicOnly, _ := args["public"].(bool)

	var dtos []CertificateDTO
	for _, c := range certs {
		if hostIDFilter > 0 && (!c.HostID.Valid || int(c.HostID.Int64) != hostIDFilter) {
			continue
		}
		if publicOnly && !c.Public {
			continue
		}
		dtos = append(dtos, CertificateToDTO(c))
	}
	return jsonResult(dtos)
}

func (h *handlers) listDomains(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	domains, err := models.GetAllDomains(h.db)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list domains: %v", err)), nil
	}

	unassignedOnly, _ := args["unassigned"].(bool)

	var dtos []DomainDTO
	for _, d := range domains {
		if unassignedOnly && d.CertificateID.Valid {
			continue
		}
		dtos = append(dtos, DomainToDTO(d))
	}
	return jsonResult(dtos)
}

func (h *handlers) getLatestReport(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := models.GetRecentScanRuns(h.db, 1)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load scan runs: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("no scans have run yet"), nil
	}

	run := runs[0]
	verdicts, err := models.GetVerdictsByRunID(h.db, run.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load verdicts: %v", err)), nil
	}

	var dtos []VerdictDTO
	for _, v := range verdicts {
		dtos = append(dtos, VerdictToDTO(v))
	}

	result := map[string]any{
		"run":      ScanRunToDTO(run),
		"verdicts": dtos,
	}
	return jsonResult(result)
}

func (h *handlers) getScanHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	limit := 10
	if l, ok := args["limit"]; ok {
		if v, err := toInt(l); err == nil && v > 0 {
			limit = v
		}
	}

	runs, err := models.GetRecentScanRuns(h.db, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load scan runs: %v", err)), nil
	}

	var dtos []ScanRunDTO
	for _, r := range runs {
		dtos = append(dtos, ScanRunToDTO(r))
	}
	return jsonResult(dtos)
}

func (h *handlers) getCertificateStatus(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	cid, ok := args["certificate_id"]
	if !ok {
		return mcp.NewToolResultError("certificate_id is required"), nil
	}
	certID, err := toInt(cid)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid certificate_id: %v", err)), nil
	}

	cert, err := models.GetCertificateByID(h.db, certID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate not found: %v", err)), nil
	}

	result := map[string]any{
		"certificate": CertificateToDTO(*cert),
	}

	// Only flagged verdicts are persisted; absence means the last scan
	// found nothing wrong.
	verdict, err := models.GetLatestVerdictForCertificate(h.db, certID)
	if err == nil {
		result["latest_verdict"] = VerdictToDTO(*verdict)
	} else {
		result["latest_verdict"] = nil
	}

	return jsonResult(result)
}

func (h *handlers) runScan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.runner == nil {
		return mcp.NewToolResultError("scan runner is not configured"), nil
	}

	report, meta, err := h.runner.Run(ctx)
	if errors.Is(err, scan.ErrScanInFlight) {
		return mcp.NewToolResultError("a scan is already running"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}

	if report == nil {
		return jsonResult(map[string]any{
			"run_id":         meta.RunID,
			"domains_probed": meta.DomainsProbed,
			"probe_failures": meta.ProbeFailures,
			"flagged":        0,
		})
	}

	var dtos []VerdictDTO
	for _, v := range report.Verdicts {
		dto := VerdictDTO{
			CertificateID:   v.CertificateID,
			CertificateName: v.CertificateName,
			Verdict:         v.Kind.String(),
		}
		if v.HasExpiry {
			dto.NotAfter = formatTime(v.NotAfter)
			days := int64(v.DaysLeft)
			dto.DaysLeft = &days
		}
		dtos = append(dtos, dto)
	}

	result := map[string]any{
		"run_id":         report.Meta.RunID,
		"domains_probed": report.Meta.DomainsProbed,
		"probe_failures": report.Meta.ProbeFailures,
		"flagged":        len(report.Verdicts),
		"verdicts":       dtos,
	}
	return jsonResult(result)
}

func (h *handlers) getActivityLog(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	limit := 20
	if l, ok := args["limit"]; ok {
		if v, err := toInt(l); err == nil && v > 0 {
			limit = v
		}
	}

	activities, err := models.GetRecentActivities(h.db, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get activities: %v", err)), nil
	}

	entityFilter, _ := args["entity_type"].(string)

	var dtos []ActivityDTO
	for _, a := range activities {
		if entityFilter != "" && a.EntityType != entityFilter {
			continue
		}
		dtos = append(dtos, ActivityToDTO(a))
	}
	return jsonResult(dtos)
}

func (h *handlers) backupDatabase(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.bm == nil {
		return mcp.NewToolResultError("backup manager is not configured"), nil
	}

	bi, err := h.bm.BackupDatabase(h.dbPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("backup failed: %v", err)), nil
	}

	result := map[string]any{
		"name": bi.Name,
		"path": bi.Path,
		"size": backup.FormatSize(bi.Size),
	}
	return jsonResult(result)
}

// helpers

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case float64:
		return int(val), nil
	case int:
		return val, nil
	case string:
		return strconv.Atoi(val)
	case json.Number:
		n, err := val.Int64()
		return int(n), err
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
