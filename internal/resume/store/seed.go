package store

import (
	"time"

	"github.com/google/uuid"

	"talentmatch/internal/resume/models"
	"talentmatch/pkg/domain"
)

// Stable IDs of the demo résumés, so links survive restarts.
var (
	DemoResumeFrontend = domain.ResumeID(uuid.MustParse("6f1c1f9e-8f0a-4c55-9a55-4c1f0f3b7a01"))
	DemoResumeDesigner = domain.ResumeID(uuid.MustParse("6f1c1f9e-8f0a-4c55-9a55-4c1f0f3b7a02"))
)

// DemoResumes returns the two résumés the demo starts with.
func DemoResumes(now time.Time) []models.Resume {
	return []models.Resume{
		{
			ID:          DemoResumeFrontend,
			Name:        "林美麗 (Mei-Li Lin)",
			Email:       "meili.lin@example.com",
			Phone:       "0912-345-678",
			DesiredRole: "資深前端工程師 (Senior Frontend Engineer)",
			Summary:     "擁有超過五年經驗的前端工程師，專精於 React、TypeScript 與現代化前端開發流程。具備領導小型開發團隊的經驗。",
			Experience: []models.Experience{
				{ID: "exp-1-1", Title: "前端工程師", Company: "科技無限公司", Duration: "2020/01 - 至今", Description: "負責開發與維護公司核心產品的客戶端介面。"},
				{ID: "exp-1-2", Title: "初級網頁開發者", Company: "網路新創坊", Duration: "2018/07 - 2019/12", Description: "參與公司官方網站的開發，主要使用 Vue.js 與 SCSS。"},
			},
			Education: []models.Education{
				{ID: "edu-1-1", Degree: "資訊工程學系 學士", School: "國立臺灣科技大學", Duration: "2014/09 - 2018/06"},
			},
			Skills:    []string{"React", "TypeScript", "JavaScript", "Node.js", "Tailwind CSS", "Next.js", "Git", "CI/CD"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          DemoResumeDesigner,
			Name:        "陳志明 (Chih-Ming Chen)",
			Email:       "cm.chen@example.com",
			Phone:       "0987-654-321",
			DesiredRole: "UI/UX 設計師 (UI/UX Designer)",
			Summary:     "充滿熱情的 UI/UX 設計師，熟悉從使用者研究、線框圖繪製到高保真原型製作的完整設計流程。",
			Experience: []models.Experience{
				{ID: "exp-2-1", Title: "UI/UX 設計師", Company: "創意設計所", Duration: "2019/05 - 至今", Description: "主導公司多款 App 的介面與使用者體驗設計。"},
			},
			Education: []models.Education{
				{ID: "edu-2-1", Degree: "設計學系 碩士", School: "國立成功大學", Duration: "2017/09 - 2019/06"},
			},
			Skills:    []string{"Figma", "Sketch", "Adobe XD", "使用者研究", "線框圖", "原型製作", "設計系統"},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
