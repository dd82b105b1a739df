package supabase

import (
	"context"
	"net/url"

	"github.com/daylog/core/internal/platform"
)

const storageCacheControl = "max-age=3600"

// Upload writes obj to its bucket as the caller, replacing any existing object.
func (c *Client) Upload(ctx context.Context, caller platform.Caller, obj platform.Object) error {
	path := "/storage/v1/object/" + url.PathEscape(obj.Bucket) + "/" + platform.EncodeObjectKey(obj.Path)

	resp, err := c.request(ctx, caller.Credential).
		SetHeader("Content-Type", obj.ContentType).
		SetHeader("x-upsert", "true").
		SetHeader("Cache-Control", storageCacheControl).
		SetBody(obj.Body).
		Post(path)
	if err != nil {
		return transportError("upload object", err)
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}
