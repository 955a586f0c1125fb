package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.gateway.Send(ctx, services.RequestDescriptor{Path: path})
	if err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := apiPath(cmd)
	if err != nil {
		return err
	}

	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	if err := shared.ValidateJSON([]byte(data)); err != nil {
		return err
	}

	resp, err := r.gateway.Send(ctx, services.RequestDescriptor{
		Path:   path,
		Method: http.MethodPost,
		Body:   []byte(data),
	})
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

func apiPath(cmd *cli.Command) (string, error) {
	path := cmd.Args().First()
	if path == "" {
		return "", fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

func (r *Runner) writeResponse(resp *services.Response, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSON, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// userMessage renders gateway failures as short copy; other errors are left to the logger.
func userMessage(err error) string {
	if errors.Is(err, services.ErrTransport) || errors.Is(err, services.ErrService) || errors.Is(err, services.ErrTimeout) {
		return services.UserMessage(err)
	}
	return ""
}

