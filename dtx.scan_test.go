package dtx

import (
	"context"
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingForms struct{}

func (failingForms) Forms(ctx context.Context) ([]*Form, error) {
	return nil, errors.New("database unavailable")
}

func TestScanner_StatusLifecycle(t *testing.T) {
	ctx := context.Background()
	host := newTestHost(t)
	storage := NewMemoryStorage()
	scanner := NewScanner(host, storage, nil)

	result, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanStatusNone, result.Previous)
	assert.Equal(t, ScanStatusRequired, result.Status)
	assert.Equal(t, 2, result.Forms)
	assert.NoError(t, result.Problems)

	require.Len(t, result.Findings, 4)
	assert.Equal(t, ScanFinding{
		FormID:    2,
		FormTitle: "Contact",
		Domain:    DomainUserData,
		Key:       "display_name",
		Tag:       TagNameCurrentUser,
		Raw:       "CF7_get_current_user key='display_name'",
	}, result.Findings[0])
	assert.Equal(t, []string{"color", "secret"}, result.DeniedKeys(DomainPostMeta))
	assert.Equal(t, []string{"display_name", DefaultCurrentUserKey}, result.DeniedKeys(DomainUserData))

	stored, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanStatusRequired, stored.ScanStatus)

	completed, err := scanner.AllowFindings(ctx, result)
	require.NoError(t, err)
	assert.Equal(t, ScanStatusRequired, completed.Previous)
	assert.Equal(t, ScanStatusCompleted, completed.Status)
	assert.Empty(t, completed.Findings)

	stored, err = storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"color", "secret"}, stored.AllowList(DomainPostMeta))
	assert.Equal(t, []string{"display_name", DefaultCurrentUserKey}, stored.AllowList(DomainUserData))
	assert.Equal(t, ScanStatusCompleted, stored.ScanStatus)

	again, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanStatusCompleted, again.Status, "completed stays completed while clean")
}

func TestScanner_NotRequired(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	settings := DefaultSettings()
	settings.SetAllowAll(DomainPostMeta, true)
	settings.SetAllowAll(DomainUserData, true)
	require.NoError(t, storage.Save(ctx, settings))

	result, err := NewScanner(newTestHost(t), storage, nil).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, ScanStatusNotRequired, result.Status)
	assert.Empty(t, result.Findings)
}

func TestScanner_NoDynamicTags(t *testing.T) {
	host := NewMemoryHost(nil)
	host.AddForm(&Form{ID: 1, Title: "Plain", Body: `[text your-name] [dynamic_text greeting "CF7_GET key='ref'"]`})

	result, err := NewScanner(host, NewMemoryStorage(), nil).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanStatusNotRequired, result.Status)
	assert.Equal(t, 1, result.Forms)
}

func TestScanner_Problems(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	host := NewMemoryHost(nil)
	host.AddForm(&Form{ID: 7, Title: "Broken", Body: `[dynamic_hidden size "CF7_get_custom_field stray key='size'"]`})

	result, err := NewScanner(host, NewMemoryStorage(), zap.New(core)).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Findings, 1)
	assert.Equal(t, "size", result.Findings[0].Key)

	require.Error(t, result.Problems)
	problems := multierr.Errors(result.Problems)
	require.Len(t, problems, 1)
	var custom *cuserr.CustomError
	require.True(t, errors.As(problems[0], &custom))
	formID, ok := custom.GetMetadata(MetaKeyFormID)
	assert.True(t, ok)
	assert.Equal(t, "7", formID)

	assert.Equal(t, 1, logs.FilterMessage(LogMsgScanFormProblem).Len())
}

func TestScanner_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewScanner(nil, NewMemoryStorage(), nil).Scan(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgScanNoForms)

	_, err = NewScanner(NewMemoryHost(nil), nil, nil).Scan(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgScanNoStorage)

	_, err = NewScanner(failingForms{}, NewMemoryStorage(), nil).Scan(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgScanListForms)

	closed := NewMemoryStorage()
	require.NoError(t, closed.Close())
	_, err = NewScanner(NewMemoryHost(nil), closed, nil).Scan(ctx)
	require.Error(t, err)
}

func TestNextScanStatus(t *testing.T) {
	tests := []struct {
		previous ScanStatus
		denied   bool
		want     ScanStatus
	}{
		{ScanStatusNone, false, ScanStatusNotRequired},
		{ScanStatusNone, true, ScanStatusRequired},
		{ScanStatusNotRequired, false, ScanStatusNotRequired},
		{ScanStatusNotRequired, true, ScanStatusRequired},
		{ScanStatusRequired, false, ScanStatusCompleted},
		{ScanStatusRequired, true, ScanStatusRequired},
		{ScanStatusCompleted, false, ScanStatusCompleted},
		{ScanStatusCompleted, true, ScanStatusRequired},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextScanStatus(tt.previous, tt.denied), "%q denied=%v", tt.previous, tt.denied)
	}
}
