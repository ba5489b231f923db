package service

import (
	"context"
	"testing"

	"zhongdao/internal/model"
)

func TestMemberLookupCaches(t *testing.T) {
	repo := newFakeMemberRepo(newMember(9, model.RankVIP, model.MemberStatusActive, "1/5"))
	lookup := newTestLookup(repo)
	ctx := context.Background()

	m, err := lookup.Get(ctx, 9)
	if err != nil || m == nil {
		t.Fatalf("Get = %v, %v", m, err)
	}

	// 仓库数据变更后，缓存仍返回旧值
	repo.members[9] = newMember(9, model.RankDirector, model.MemberStatusActive, "1/5")
	m, err = lookup.Get(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if m.Rank != model.RankVIP {
		t.Errorf("Rank = %v, want cached %v", m.Rank, model.RankVIP)
	}

	lookup.Invalidate(9)
	m, err = lookup.Get(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if m.Rank != model.RankDirector {
		t.Errorf("Rank after invalidation = %v, want %v", m.Rank, model.RankDirector)
	}
}

func TestMemberLookupMissingNotCached(t *testing.T) {
	repo := newFakeMemberRepo()
	lookup := newTestLookup(repo)
	ctx := context.Background()

	m, err := lookup.Get(ctx, 9)
	if err != nil || m != nil {
		t.Fatalf("Get missing = %v, %v; want nil, nil", m, err)
	}

	// 会员补录后立即可见，空结果不应被缓存
	repo.members[9] = newMember(9, model.RankVIP, model.MemberStatusActive, "")
	m, err = lookup.Get(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("member added after a miss should be visible")
	}
}

func TestMemberLookupGetMany(t *testing.T) {
	repo := newFakeMemberRepo(
		newMember(1, model.RankDirector, model.MemberStatusActive, ""),
		newMember(5, model.RankTier1, model.MemberStatusActive, "1"),
	)
	lookup := newTestLookup(repo)
	ctx := context.Background()

	// 先缓存1，再批量获取，5走仓库
	if _, err := lookup.Get(ctx, 1); err != nil {
		t.Fatal(err)
	}
	result, err := lookup.GetMany(ctx, []int64{1, 5, 404})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 {
		t.Fatalf("GetMany returned %d members, want 2", len(result))
	}
	if result[1] == nil || result[5] == nil {
		t.Error("members 1 and 5 should both be present")
	}
}
