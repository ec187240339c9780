package config

import (
	"os"
	"strings"
)

// applyEnvironment overlays recognized environment variables on top of the
// file-derived configuration. Values are stripped of surrounding quotes,
// matching the behavior of typical .env loaders.
func (c *Config) applyEnvironment() {
	setString(&c.Nextcloud.URL, "NEXTCLOUD_URL")
	setString(&c.Nextcloud.Username, "NEXTCLOUD_USERNAME")
	setString(&c.Nextcloud.Password, "NEXTCLOUD_PASSWORD")
	setString(&c.Nextcloud.ImagePath, "NEXTCLOUD_IMAGE_PATH")
	setString(&c.Nextcloud.UploadPath, "NEXTCLOUD_UPLOAD_PATH")
	setBool(&c.Nextcloud.InsecureTLS, "NEXTCLOUD_INSECURE_SSL")

	setString(&c.Matrix.Homeserver, "MATRIX_HOMESERVER")
	setString(&c.Matrix.AccessToken, "MATRIX_ACCESS_TOKEN")
	setString(&c.Matrix.RoomID, "MATRIX_ROOM_ID")
	setString(&c.Matrix.UserID, "MATRIX_USER_ID")
	if raw, ok := lookup("MATRIX_ALLOWED_SENDERS"); ok {
		senders := make([]string, 0, 4)
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				senders = append(senders, part)
			}
		}
		c.Matrix.AllowedSenders = senders
	}

	setString(&c.Notifications.NtfyURL, "NTFY_URL")
	setString(&c.Notifications.NtfyTopic, "NTFY_TOPIC")
	setString(&c.Notifications.NtfyToken, "NTFY_TOKEN")
	setBool(&c.Notifications.Enabled, "ENABLE_NTFY")

	setString(&c.Paths.OutputFile, "OUTPUT_FILEPATH")
	setString(&c.Slideshow.ImageFolder, "IMAGE_FOLDER")
}

func lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"'`)
	return value, true
}

func setString(target *string, name string) {
	if value, ok := lookup(name); ok && value != "" {
		*target = value
	}
}

func setBool(target *bool, name string) {
	if value, ok := lookup(name); ok {
		*target = strings.EqualFold(value, "true")
	}
}
