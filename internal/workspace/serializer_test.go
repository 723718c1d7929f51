package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gbguki/modelcutAI/internal/domain"
)

type hostStub struct {
	uploads []string
	fail    error
}

func (h *hostStub) Upload(_ context.Context, name, payload string) (string, error) {
	if h.fail != nil {
		return "", h.fail
	}
	if strings.Contains(payload, ",") || strings.HasPrefix(payload, "data:") {
		return "", errors.New("payload still carries an encoding prefix")
	}
	h.uploads = append(h.uploads, name)
	return "https://img.example/" + name, nil
}

func newTestSerializer(host *hostStub) *Serializer {
	ext := NewExternalizer(host)
	ext.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return NewSerializer(ext)
}

func TestSerializeExternalizesEveryInlinePayload(t *testing.T) {
	host := &hostStub{}
	ser := newTestSerializer(host)

	ws := domain.Workspace{
		ID:    "local-1",
		Name:  "summer drop",
		Owner: "지민",
		BaseImage: &domain.ImageRef{
			ID:           "base-1",
			URL:          "data:image/png;base64,QkFTRQ==",
			SourceHandle: "picker-42",
		},
		ProductImages: []domain.ImageRef{
			{ID: "p-1", InlineData: "data:image/png;base64,UFJPRDE="},
			{ID: "p-2", InlineData: "UFJPRDI="},
		},
		ActiveVersionIndex: -1,
	}

	var phases []Phase
	doc, err := ser.Serialize(context.Background(), ws, func(p Progress) {
		phases = append(phases, p.Phase)
	})
	require.NoError(t, err)

	require.Equal(t, "https://img.example/base_1700000000000", doc.BaseImage.URL)
	require.Empty(t, doc.BaseImage.InlineData)
	require.Empty(t, doc.BaseImage.SourceHandle)
	require.Len(t, doc.ProductImages, 2)
	for _, ref := range doc.ProductImages {
		require.True(t, ref.Hosted(), "product %s should be hosted", ref.ID)
		require.Empty(t, ref.InlineData)
	}
	require.Empty(t, doc.History)
	require.Equal(t, []Phase{PhaseUploadingBase, PhaseUploadingProducts}, phases)
	require.Equal(t, []string{
		"base_1700000000000",
		"product_0_1700000000000",
		"product_1_1700000000000",
	}, host.uploads)
}

func TestSerializeHistoryUploadsInlineResultsOnly(t *testing.T) {
	host := &hostStub{}
	ser := newTestSerializer(host)

	ws := domain.Workspace{
		History: []domain.GenerationResult{
			{ID: "r-1", ImageURL: "https://img.example/result_0_1"},
			{ID: "r-2", ImageURL: "data:image/png;base64,UkVTVUxU"},
		},
		ActiveVersionIndex: 1,
	}

	var events []Progress
	doc, err := ser.Serialize(context.Background(), ws, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	require.Equal(t, "https://img.example/result_0_1", doc.History[0].ImageURL)
	require.Equal(t, "https://img.example/result_1_1700000000000", doc.History[1].ImageURL)
	require.Equal(t, []Progress{
		{Phase: PhaseUploadingBase},
		{Phase: PhaseUploadingProducts},
		{Phase: PhaseUploadingHistory, Index: 1, Total: 2},
		{Phase: PhaseUploadingHistory, Index: 2, Total: 2},
	}, events)
	require.Equal(t, []string{"result_1_1700000000000"}, host.uploads)
}

func TestSerializeEmitsPhasesForEmptySteps(t *testing.T) {
	host := &hostStub{}
	ser := newTestSerializer(host)

	var phases []Phase
	_, err := ser.Serialize(context.Background(), domain.Workspace{ActiveVersionIndex: -1}, func(p Progress) {
		phases = append(phases, p.Phase)
	})
	require.NoError(t, err)
	require.Equal(t, []Phase{PhaseUploadingBase, PhaseUploadingProducts}, phases)
	require.Empty(t, host.uploads)
}

func TestSerializeAbortsOnUploadFailure(t *testing.T) {
	host := &hostStub{fail: errors.New("imgbb: status 502: upstream unavailable")}
	ser := newTestSerializer(host)

	ws := domain.Workspace{
		BaseImage: &domain.ImageRef{ID: "base-1", InlineData: "QkFTRQ=="},
	}
	doc, err := ser.Serialize(context.Background(), ws, nil)
	require.Nil(t, doc)
	require.ErrorIs(t, err, domain.ErrUpload)
	require.Equal(t, "imgbb: status 502: upstream unavailable", err.Error())
}

func TestExternalizeIsIdempotentForHostedRefs(t *testing.T) {
	host := &hostStub{}
	ext := NewExternalizer(host)

	ref := domain.ImageRef{ID: "base-1", URL: "https://img.example/base_1", SourceHandle: "picker-9"}
	first, err := ext.Externalize(context.Background(), ref, "base")
	require.NoError(t, err)
	second, err := ext.Externalize(context.Background(), first, "base")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Empty(t, first.SourceHandle)
	require.Empty(t, host.uploads, "hosted refs must not be re-uploaded")
}

func TestExternalizePrefersInlineDataOverDataURI(t *testing.T) {
	host := &hostStub{}
	ext := NewExternalizer(host)
	ext.now = func() time.Time { return time.UnixMilli(42) }

	ref := domain.ImageRef{
		ID:         "base-1",
		URL:        "data:image/png;base64,RlJPTVVSTA==",
		InlineData: "RlJPTURBVEE=",
	}
	out, err := ext.Externalize(context.Background(), ref, "base")
	require.NoError(t, err)
	require.Equal(t, "https://img.example/base_42", out.URL)
	require.Empty(t, out.InlineData)
}

func TestExternalizeRejectsPayloadlessRef(t *testing.T) {
	ext := NewExternalizer(&hostStub{})
	_, err := ext.Externalize(context.Background(), domain.ImageRef{ID: "ghost"}, "base")
	require.ErrorIs(t, err, domain.ErrValidation)
}
