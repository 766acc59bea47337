package catalog

import (
	"testing"

	"github.com/maheshrc27/postloop/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestImageName(t *testing.T) {
	assert.Equal(t, "img (1).jpg", ImageName(1))
	assert.Equal(t, "img (42).jpg", ImageName(42))
}

func TestVideoName(t *testing.T) {
	assert.Equal(t, "vid.mp4", VideoName(0))
	assert.Equal(t, "vid (1).mp4", VideoName(1))
	assert.Equal(t, "vid (199).mp4", VideoName(199))
}

func TestImageNames(t *testing.T) {
	names := ImageNames(3)
	assert.Equal(t, []string{"img (1).jpg", "img (2).jpg", "img (3).jpg"}, names)
}

func TestVideoNamesIncludesBareSlot(t *testing.T) {
	names := VideoNames(2)
	assert.Equal(t, []string{"vid.mp4", "vid (1).mp4", "vid (2).mp4"}, names)
	// max video slots yield max+1 catalog entries
	assert.Len(t, VideoNames(200), 201)
}

func TestNamesByKind(t *testing.T) {
	assert.Equal(t, "vid.mp4", Names(models.ContentKindVideo, 1)[0])
	assert.Equal(t, "img (1).jpg", Names(models.ContentKindImage, 1)[0])
}

func TestEncodeFilenameDefault(t *testing.T) {
	assert.Equal(t, "img%20%281%29.jpg", EncodeFilename("img (1).jpg", models.EncodingDefault))
}

func TestEncodeFilenameSpaceLiteral(t *testing.T) {
	// Only the space is replaced; parentheses stay literal.
	assert.Equal(t, "img%20(7).jpg", EncodeFilename("img (7).jpg", models.EncodingSpaceLiteral))
}

func TestItemURL(t *testing.T) {
	got := ItemURL("https://cdn.example.com/content/", "img (3).jpg", models.EncodingSpaceLiteral)
	assert.Equal(t, "https://cdn.example.com/content/img%20(3).jpg", got)

	got = ItemURL("https://cdn.example.com/content", "vid.mp4", models.EncodingDefault)
	assert.Equal(t, "https://cdn.example.com/content/vid.mp4", got)
}
