package client

import (
	"math/rand/v2"
)

// 昵称词库
var (
	adjectives = []string{
		"精明的", "豪爽的", "谨慎的", "贪心的", "冷静的",
		"莽撞的", "阔绰的", "抠门的", "眼尖的", "稳重的",
		"大胆的", "狡猾的", "淡定的", "霸气的", "神秘的",
	}

	nouns = []string{
		"拍卖师", "收藏家", "掮客", "藏家", "鉴定师",
		"骑士", "剑客", "铁匠", "术士", "游侠",
		"商人", "船长", "猎人", "学徒", "守卫",
	}
)

// GenerateNickname 生成随机昵称，未指定 --name 时使用
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}
