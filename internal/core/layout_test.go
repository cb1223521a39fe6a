package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatHeader(t *testing.T) {
	v1 := FlatHeader(LayoutV1)
	v2 := FlatHeader(LayoutV2)

	require.Len(t, v1, 9+2+2*8+4*8)
	require.Len(t, v2, len(v1)+1)

	assert.Equal(t, "Filing Type", v1[8])
	assert.Equal(t, "Exemption Category", v1[9])
	assert.Equal(t, "Service Level", v2[9])
	assert.Equal(t, "Exemption Category", v2[10])

	assert.Equal(t, "Applicant 1 Name", v1[11])
	assert.Equal(t, "Applicant 2 Role", v1[26])
	assert.Equal(t, "Owner 1 Name", v1[27])
	assert.Equal(t, "Owner 1 Name", v2[28], "every block shifts by one in v2")
	assert.Equal(t, "Owner 4 Position", v2[len(v2)-1])
}

func TestDetectVariant(t *testing.T) {
	assert.Equal(t, LayoutV2, DetectVariant(FlatHeader(LayoutV2)))
	assert.Equal(t, LayoutV1, DetectVariant(FlatHeader(LayoutV1)))

	h := FlatHeader(LayoutV2)
	h[9] = "  service level "
	assert.Equal(t, LayoutV2, DetectVariant(h))

	assert.Equal(t, LayoutV1, DetectVariant([]string{"Legal Name"}))
	assert.Equal(t, LayoutV1, FlatLayout("v9").Variant)
}

func TestLayout_Blocks(t *testing.T) {
	layout := FlatLayout(LayoutV2)
	row := make([]string, layout.Width())
	row[28] = "First Owner"
	row[28+8+3] = "40"

	owners := layout.Blocks(row, SectionOwners)
	require.Len(t, owners, MaxFlatOwners)
	assert.Equal(t, "First Owner", owners[0].Get(BlockName))
	assert.Equal(t, "40", owners[1].Get(BlockOwnership))
	assert.Equal(t, "", owners[0].Get(BlockRole), "not an owner field")

	short := layout.Blocks(row[:10], SectionOwners)
	assert.Equal(t, "", short[3].Get(BlockName), "short rows read as empty")

	assert.Nil(t, layout.Blocks(row, "nope"))
	assert.Equal(t, "", layout.Block(row, "nope").Get(BlockName))
}
