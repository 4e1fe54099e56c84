// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-gatherer/pkg/types"
)

const scholarPageFixture = `<html><body><div id="gs_res_ccl_mid">
<div class="gs_r gs_or gs_scl" data-cid="cid-1">
  <div class="gs_ggs gs_fl"><div class="gs_or_ggsm"><a href="https://papers.example.org/one.pdf"><span class="gs_ctg2">[PDF]</span> example.org</a></div></div>
  <div class="gs_ri">
    <h3 class="gs_rt"><span class="gs_ctc"><span class="gs_ct1">[PDF]</span></span> <a id="res-1" href="https://papers.example.org/one">Deep   Learning for Graphs</a></h3>
    <div class="gs_a">A Smith, B Jones&nbsp;- Journal of Things, 2019 - example.org</div>
    <div class="gs_rs">We study deep learning
      on graphs.</div>
  </div>
</div>
<div class="gs_r gs_or gs_scl" data-cid="cid-2">
  <div class="gs_ri">
    <h3 class="gs_rt"><span class="gs_ctu"><span class="gs_ct1">[CITATION]</span></span> Citation Only Entry</h3>
    <div class="gs_a">C Doe… - 2008</div>
  </div>
</div>
<div class="gs_r"><div class="gs_ab_mdw">Related searches</div></div>
<div class="gs_r gs_or gs_scl" data-cid="cid-3">
  <div class="gs_ri">
    <h3 class="gs_rt"><a id="res-3" href="https://papers.example.org/three">Undated Work</a></h3>
    <div class="gs_a">E Roe - example.org</div>
  </div>
</div>
</div></body></html>`

func TestScholarPageURL(t *testing.T) {
	src := &ScholarSource{}
	assert.Equal(t,
		"https://scholar.google.com/scholar?hl=en&num=10&start=10&q=graph+neural+networks",
		src.PageURL("graph neural networks", 10, 10))

	src = &ScholarSource{BaseURL: "http://localhost:9/s", Language: "de", Years: types.YearRange{Start: 2010, End: 2020}}
	assert.Equal(t,
		"http://localhost:9/s?hl=de&num=5&start=0&q=q&as_ylo=2010&as_yhi=2020",
		src.PageURL("q", 0, 5))
}

func TestScholarExtract(t *testing.T) {
	got, err := (&ScholarSource{}).Extract([]byte(scholarPageFixture), 10)
	require.NoError(t, err)
	require.Len(t, got, 3, "blocks without a title are not results")

	first := got[0]
	assert.Equal(t, "Deep Learning for Graphs", first.Title)
	assert.Equal(t, []string{"A Smith", "B Jones"}, first.Authors)
	assert.Equal(t, "https://papers.example.org/one", first.Link)
	assert.Equal(t, "https://papers.example.org/one.pdf", first.FileLink)
	assert.Equal(t, "res-1", first.SourceID)
	assert.Equal(t, types.Period{Year: 2019}, first.Period)
	assert.Equal(t, "We study deep learning on graphs.", first.Abstract)
	assert.Equal(t, "scholar", first.Source)

	second := got[1]
	assert.Equal(t, "Citation Only Entry", second.Title)
	assert.False(t, second.HasFile())
	assert.Equal(t, "cid-2", second.SourceID)
	assert.Equal(t, []string{"C Doe"}, second.Authors)
	assert.Equal(t, 2008, second.Period.Year)

	assert.True(t, got[2].Period.IsZero())
}

func TestScholarExtract_CapsAtNum(t *testing.T) {
	got, err := (&ScholarSource{}).Extract([]byte(scholarPageFixture), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Deep Learning for Graphs", got[0].Title)
}

func TestScholarExtract_YearRangeKeepsUnknown(t *testing.T) {
	src := &ScholarSource{Years: types.YearRange{Start: 2015}}
	got, err := src.Extract([]byte(scholarPageFixture), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Deep Learning for Graphs", got[0].Title)
	assert.Equal(t, "Undated Work", got[1].Title)
}

func TestScholarExtract_EmptyPage(t *testing.T) {
	got, err := (&ScholarSource{}).Extract([]byte("<html><body>blocked</body></html>"), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseByline(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		authors []string
		year    int
	}{
		{"full", "A Smith, B Jones - Nature, 2021 - nature.com", []string{"A Smith", "B Jones"}, 2021},
		{"truncated authors", "A Smith, B Jones… - Proc. 1999", []string{"A Smith", "B Jones"}, 1999},
		{"nbsp", "X Y\u00a0- Venue, 2005\u00a0- host", []string{"X Y"}, 2005},
		{"no year", "Solo Author - host.org", []string{"Solo Author"}, 0},
		{"empty", "", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authors, period := parseByline(tt.in)
			assert.Equal(t, tt.authors, authors)
			assert.Equal(t, tt.year, period.Year)
		})
	}
}
