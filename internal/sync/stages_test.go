package sync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageOrder_AllOptionCombinations(t *testing.T) {
	for _, questions := range []bool{false, true} {
		for _, posts := range []bool{false, true} {
			for _, media := range []bool{false, true} {
				opts := Options{
					IncludeQuestions: questions,
					IncludePosts:     posts,
					IncludeMedia:     media,
				}

				name := fmt.Sprintf("q=%v p=%v m=%v", questions, posts, media)
				t.Run(name, func(t *testing.T) {
					order := StageOrder(opts)

					assert.Equal(t, StageInit, order[0])
					assert.Equal(t, StageLocationsFetch, order[1])
					assert.Equal(t, StageReviewsFetch, order[2])
					assert.Equal(t, StageComplete, order[len(order)-1])
					assert.Equal(t, StageCacheRefresh, order[len(order)-2])
					assert.Equal(t, StageTransaction, order[len(order)-3])

					assert.Equal(t, questions, containsStage(order, StageQuestionsFetch))
					assert.Equal(t, posts, containsStage(order, StagePostsFetch))
					assert.Equal(t, media, containsStage(order, StageMediaFetch))

					expected := 6
					for _, on := range []bool{questions, posts, media} {
						if on {
							expected++
						}
					}
					assert.Len(t, order, expected)
				})
			}
		}
	}
}

func TestStageOrder_DefaultRun(t *testing.T) {
	order := StageOrder(Options{})
	assert.Equal(t, []Stage{
		StageInit,
		StageLocationsFetch,
		StageReviewsFetch,
		StageTransaction,
		StageCacheRefresh,
		StageComplete,
	}, order)
}

func containsStage(order []Stage, stage Stage) bool {
	for _, s := range order {
		if s == stage {
			return true
		}
	}
	return false
}
