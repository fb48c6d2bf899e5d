// SPDX-License-Identifier: AGPL-3.0-only
package store

type seedTable struct {
	table  string
	insert string
	rows   [][]interface{}
}

var seeds = []seedTable{
	{
		table:  "users",
		insert: "INSERT INTO users (name, email, role, experience) VALUES (?, ?, ?, ?)",
		rows: [][]interface{}{
			{"김개발", "kim@company.com", "backend", 5},
			{"이프론트", "lee@company.com", "frontend", 3},
			{"박풀스택", "park@company.com", "fullstack", 7},
			{"최디비", "choi@company.com", "database", 4},
		},
	},
	{
		table:  "guides",
		insert: "INSERT INTO guides (title, category, content, author, created_at) VALUES (?, ?, ?, ?, ?)",
		rows: [][]interface{}{
			{"백엔드 개발 가이드", "backend", "FastAPI를 사용한 백엔드 개발 방법론", "김개발", "2024-01-15"},
			{"프론트엔드 베스트 프랙티스", "frontend", "React와 TypeScript를 활용한 모던 프론트엔드 개발", "이프론트", "2024-02-10"},
			{"데이터베이스 설계 원칙", "database", "효율적인 데이터베이스 스키마 설계 및 최적화 방법", "최디비", "2024-03-05"},
			{"API 문서화 가이드", "api", "OpenAPI를 활용한 체계적인 API 문서화", "박풀스택", "2024-03-20"},
		},
	},
}
