package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"takeoff-service/internal/models"
	"takeoff-service/internal/typeindex"
)

// RemoteStrategy posts the file to the processing service and converts the
// returned bundle. Remote results carry no geometry.
type RemoteStrategy struct {
	// BaseURL of the service, e.g. http://localhost:8080
	BaseURL string
	Timeout time.Duration
}

func (s *RemoteStrategy) Name() string { return StrategyRemote }

type remoteError struct {
	Error            bool   `json:"error"`
	Message          string `json:"message"`
	Code             string `json:"code"`
	SuggestAlternate string `json:"suggestAlternate"`
}

func (s *RemoteStrategy) Run(ctx context.Context, file File, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts.Timings.Start("remote")
	code, body, err := s.post(ctx, file)
	opts.Timings.End("remote")
	if err != nil {
		return nil, &LoadError{Kind: KindFailed, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if code != fiber.StatusOK {
		var re remoteError
		_ = json.Unmarshal(body, &re)
		remoteErr := fmt.Errorf("remote returned %d: %s", code, re.Message)
		switch {
		case code == fiber.StatusRequestEntityTooLarge || re.Code == KindSizeLimit.String():
			return nil, &LoadError{Kind: KindSizeLimit, Suggest: re.SuggestAlternate, Err: remoteErr}
		case code == fiber.StatusBadRequest || code == fiber.StatusUnsupportedMediaType:
			return nil, &LoadError{Kind: KindUnsupported, Err: remoteErr}
		default:
			return nil, &LoadError{Kind: KindFailed, Err: remoteErr}
		}
	}

	var bundle models.Bundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, &LoadError{Kind: KindFailed, Err: errors.Wrap(err, "decode bundle")}
	}
	if opts.Progress != nil {
		opts.Progress(len(bundle.Elements))
	}
	return FromBundle(&bundle), nil
}

func (s *RemoteStrategy) post(ctx context.Context, file File) (int, []byte, error) {
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(strings.TrimRight(s.BaseURL, "/") + "/api/models/process")
	req.Header.SetContentType(fiber.MIMEOctetStream)
	req.Header.Set("X-File-Name", file.Name)
	req.SetBody(file.Data)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return 0, nil, errors.Wrap(err, "prepare request")
	}

	timeout := s.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); timeout == 0 || d < timeout {
			timeout = d
		}
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, errors.Wrap(errs[0], "post model")
	}
	return code, body, nil
}

// FromBundle converts a processed bundle back into a pipeline result.
func FromBundle(b *models.Bundle) *Result {
	return &Result{
		Elements:  b.Elements,
		Groups:    b.Materials,
		Index:     typeindex.Build(b.Elements),
		Tree:      b.SpatialTree,
		Storeys:   b.Storeys,
		MeshCount: b.MeshCount,
	}
}
