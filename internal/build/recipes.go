package build

import (
	"encoding/json"
	"fmt"
	"strings"
)

// synthesizeRecipe is a pure function: the same Spec and detection
// always produce byte-identical recipe text, so it's directly testable
// without a filesystem or subprocess.
func synthesizeRecipe(spec Spec, d detection) string {
	if d.framework == Docker {
		return "" // caller uses the repo's own Dockerfile unchanged
	}
	if d.framework == Static {
		return staticRecipe(spec, d)
	}

	switch d.framework {
	case NextJS:
		return nextjsRecipe(spec, d)
	case Nuxt:
		return nuxtRecipe(spec, d)
	case NestJS:
		return nestjsRecipe(spec, d)
	case NodeJS:
		return nodejsRecipe(spec, d)
	default:
		return staticLegacyOrVite(spec, d)
	}
}

func installCommand(d detection) string {
	switch d.packageManager {
	case PNPM:
		base := "npm install -g pnpm && "
		if d.hasLockfile {
			return base + "pnpm install --frozen-lockfile"
		}
		return base + "pnpm install"
	case Yarn:
		if d.hasLockfile {
			return "yarn install --frozen-lockfile"
		}
		return "yarn install"
	default:
		if d.hasLockfile {
			return "npm ci"
		}
		return "npm install"
	}
}

const lockfileCopyGlob = "package.json package-lock.json* yarn.lock* pnpm-lock.yaml* pnpm-workspace.yaml* .npmrc* ./"

func buildCommand(spec Spec, fallback string) string {
	if spec.BuildCommand != "" {
		return spec.BuildCommand
	}
	return fallback
}

// staticLegacyOrVite covers the remaining framework recipes that are all
// "build under node, serve with nginx" but differ in legacy OpenSSL /
// PUBLIC_URL handling and, for classic svelte, a whole-public/ copy.
func staticLegacyOrVite(spec Spec, d detection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM node:20 AS builder\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\n", lockfileCopyGlob, installCommand(d))

	switch spec.Framework {
	case React, Angular, Vue:
		b.WriteString("ENV NODE_OPTIONS=--openssl-legacy-provider\n")
		if spec.Framework == React {
			b.WriteString("ENV PUBLIC_URL=/\n")
		}
	}

	fmt.Fprintf(&b, "RUN %s\n", buildCommand(spec, "npm run build"))

	if spec.Framework == Svelte {
		b.WriteString("FROM nginx:alpine\nCOPY --from=builder /app/public /usr/share/nginx/html\nEXPOSE 80\n")
		return b.String()
	}

	outputDir := spec.OutputDirectory
	if outputDir == "" {
		outputDir = "dist"
	}
	fmt.Fprintf(&b, "RUN mkdir -p /app/_output && cp -r $(find %s -maxdepth 3 -name index.html -exec dirname {} \\; | head -1)/. /app/_output/\n", outputDir)
	b.WriteString("FROM nginx:alpine\nCOPY --from=builder /app/_output /usr/share/nginx/html\nEXPOSE 80\n")
	return b.String()
}

func staticRecipe(spec Spec, d detection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM node:20 AS builder\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\n", lockfileCopyGlob, installCommand(d))
	fmt.Fprintf(&b, "RUN %s\n", buildCommand(spec, "npm run build"))
	fmt.Fprintf(&b, "RUN mkdir -p /app/_output && cp -r $(find %s -maxdepth 3 -name index.html -exec dirname {} \\; | head -1)/. /app/_output/\n", d.outputDirectory)
	b.WriteString("FROM nginx:alpine\nCOPY --from=builder /app/_output /usr/share/nginx/html\nEXPOSE 80\n")
	return b.String()
}

func nextjsRecipe(spec Spec, d detection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM node:20 AS builder\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\nRUN mkdir -p public\n", lockfileCopyGlob, installCommand(d))
	fmt.Fprintf(&b, "RUN %s\n", buildCommand(spec, "npm run build"))
	b.WriteString("FROM node:20-slim\nWORKDIR /app\n")
	b.WriteString("COPY --from=builder /app/.next ./.next\nCOPY --from=builder /app/node_modules ./node_modules\nCOPY --from=builder /app/package.json ./package.json\nCOPY --from=builder /app/public ./public\n")
	b.WriteString("EXPOSE 3000\n")
	fmt.Fprintf(&b, "CMD %s\n", startCommandArray(spec, packageManagerStart(d.packageManager)))
	return b.String()
}

func nuxtRecipe(spec Spec, d detection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM node:20 AS builder\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\n", lockfileCopyGlob, installCommand(d))
	fmt.Fprintf(&b, "RUN %s\n", buildCommand(spec, "npm run build"))

	if d.nuxtMajor <= 2 {
		b.WriteString("FROM node:20\nWORKDIR /app\nCOPY --from=builder /app /app\n")
		b.WriteString("ENV HOST=0.0.0.0\nEXPOSE 3000\nCMD [\"npx\", \"nuxt\", \"start\"]\n")
		return b.String()
	}

	b.WriteString("FROM node:20-slim\nWORKDIR /app\nCOPY --from=builder /app/.output ./.output\nCOPY --from=builder /app/package*.json ./\n")
	b.WriteString("EXPOSE 3000\nCMD [\"node\", \".output/server/index.mjs\"]\n")
	return b.String()
}

func nestjsRecipe(spec Spec, d detection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM node:20 AS builder\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\n", lockfileCopyGlob, installCommand(d))
	fmt.Fprintf(&b, "RUN %s\n", buildCommand(spec, "npm run build"))
	b.WriteString("FROM node:20-slim\nWORKDIR /app\nCOPY --from=builder /app/dist ./dist\nCOPY --from=builder /app/node_modules ./node_modules\nCOPY --from=builder /app/package.json ./package.json\n")
	fmt.Fprintf(&b, "EXPOSE %d\nCMD [\"node\", \"dist/main\"]\n", portOrDefault(spec.Port, 3000))
	return b.String()
}

func nodejsRecipe(spec Spec, d detection) string {
	var b strings.Builder
	if spec.BuildCommand != "" {
		fmt.Fprintf(&b, "FROM node:20 AS builder\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\nRUN %s\n", lockfileCopyGlob, installCommand(d), spec.BuildCommand)
		b.WriteString("FROM node:20-slim\nWORKDIR /app\nCOPY --from=builder /app .\n")
		fmt.Fprintf(&b, "RUN %s\n", pruneCommand(d.packageManager))
	} else {
		fmt.Fprintf(&b, "FROM node:20-slim\nWORKDIR /app\nCOPY %s\nRUN %s\nCOPY . .\n", lockfileCopyGlob, productionInstallCommand(d))
	}
	fmt.Fprintf(&b, "EXPOSE %d\n", portOrDefault(spec.Port, 3000))
	fmt.Fprintf(&b, "CMD %s\n", startCommandArray(spec, "node index.js"))
	return b.String()
}

func productionInstallCommand(d detection) string {
	switch d.packageManager {
	case PNPM:
		return "npm install -g pnpm && pnpm install --prod"
	case Yarn:
		return "yarn install --production"
	default:
		return "npm install --omit=dev"
	}
}

func pruneCommand(pm PackageManager) string {
	switch pm {
	case PNPM:
		return "pnpm prune --prod"
	case Yarn:
		return "yarn install --production"
	default:
		return "npm prune --omit=dev"
	}
}

func packageManagerStart(pm PackageManager) string {
	switch pm {
	case PNPM:
		return "pnpm start"
	case Yarn:
		return "yarn start"
	default:
		return "npm start"
	}
}

// startCommandArray renders cmd (spec.StartCommand if set, else
// fallback) as a JSON array so it can be used verbatim as a Dockerfile
// exec-form CMD.
func startCommandArray(spec Spec, fallback string) string {
	cmd := spec.StartCommand
	if cmd == "" {
		cmd = fallback
	}
	parts := strings.Fields(cmd)
	b, _ := json.Marshal(parts)
	return string(b)
}

func portOrDefault(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
