package activities

import (
	"context"
	"encoding/base64"
	"strings"

	"go.temporal.io/sdk/activity"

	"temporal-worker-onboarding/shared"
)

// RequestUploadURL is the first phase of the document upload.
func (a *Activities) RequestUploadURL(ctx context.Context, req shared.UploadURLRequest) (putURL string, err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("getDocumentPutURL")(&err)

	resp, err := a.Gateway.GetDocumentPutURL(ctx, req.Credentials.APIKey, req.Key, req.ContentType)
	if err != nil {
		logger.Error("Upload URL request failed", "key", req.Key, "error", err)
		return "", remoteError(shared.ErrTypeSubmission, err)
	}
	if !resp.Success || resp.Data.PutURL == "" {
		return "", rejected("document upload could not be started")
	}
	return resp.Data.PutURL, nil
}

// UploadDocument is the second phase of the document upload. The captured
// image is sealed base64, optionally as a data URI, and is consumed here.
func (a *Activities) UploadDocument(ctx context.Context, up shared.DocumentUpload) (err error) {
	logger := activity.GetLogger(ctx)
	defer a.track("uploadDocument")(&err)

	sealed, err := a.redeem(ctx, up.ImageRef, "captured image")
	if err != nil {
		return err
	}
	body, err := decodeImage(string(sealed))
	if err != nil {
		return rejected("captured image is not valid base64")
	}
	if err := a.Gateway.UploadDocument(ctx, up.PutURL, up.ContentType, body); err != nil {
		logger.Error("Document upload failed", "error", err)
		return remoteError(shared.ErrTypeSubmission, err)
	}

	logger.Info("Document uploaded", "bytes", len(body))
	return nil
}

func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
