package manifest

import (
	"fmt"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"
)

const ingressClass = "traefik"

// RenderNamespace renders a bare Namespace object.
func RenderNamespace(name string) (string, error) {
	ns := corev1.Namespace{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
	return marshal(ns)
}

// RenderDeployment renders the application Deployment for spec.
func RenderDeployment(spec AppSpec) (string, error) {
	replicas := int32(1)
	env := make([]corev1.EnvVar, 0, len(spec.EnvVars))
	for k, v := range spec.EnvVars {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	container := corev1.Container{
		Name:  spec.Name,
		Image: spec.Image,
		Env:   env,
	}
	if spec.Port > 0 {
		container.Ports = []corev1.ContainerPort{{ContainerPort: int32(spec.Port)}}
	}

	dep := appsv1.Deployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{Name: spec.Name, Namespace: spec.Namespace},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": spec.Name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: map[string]string{"app": spec.Name}},
				Spec:       corev1.PodSpec{Containers: []corev1.Container{container}},
			},
		},
	}
	return marshal(dep)
}

// RenderService renders the application Service for spec, exposing Port.
func RenderService(spec AppSpec) (string, error) {
	port := int32(spec.Port)
	if port == 0 {
		port = 80
	}
	svc := corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{Name: spec.Name, Namespace: spec.Namespace},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"app": spec.Name},
			Ports: []corev1.ServicePort{{
				Port:       port,
				TargetPort: intstr.FromInt(int(port)),
			}},
		},
	}
	return marshal(svc)
}

// RenderIngress renders an HTTPS Ingress for spec.Domain, annotated for
// cert-manager's HTTP-01 issuer.
func RenderIngress(spec AppSpec) (string, error) {
	pathType := networkingv1.PathTypePrefix
	port := int32(spec.Port)
	if port == 0 {
		port = 80
	}
	ing := networkingv1.Ingress{
		TypeMeta: metav1.TypeMeta{APIVersion: "networking.k8s.io/v1", Kind: "Ingress"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Annotations: map[string]string{
				"cert-manager.io/cluster-issuer":               "letsencrypt-prod",
				"traefik.ingress.kubernetes.io/router.entrypoints": "websecure",
			},
		},
		Spec: networkingv1.IngressSpec{
			IngressClassName: strPtr(ingressClass),
			TLS: []networkingv1.IngressTLS{{
				Hosts:      []string{spec.Domain},
				SecretName: spec.Name + "-tls",
			}},
			Rules: []networkingv1.IngressRule{{
				Host: spec.Domain,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/",
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: spec.Name,
									Port: networkingv1.ServiceBackendPort{Number: port},
								},
							},
						}},
					},
				},
			}},
		},
	}
	return marshal(ing)
}

// RenderIngressRouteTCP renders a Traefik IngressRouteTCP for SNI-routed TCP
// traffic. Traefik's CRDs have no typed Go package in this module's
// dependency set, so the object is built as a plain map and marshaled the
// same deterministic way as every other renderer.
func RenderIngressRouteTCP(namespace, name, domain string, servicePort int) (string, error) {
	obj := map[string]interface{}{
		"apiVersion": "traefik.io/v1alpha1",
		"kind":       "IngressRouteTCP",
		"metadata": map[string]interface{}{
			"name":      name,
			"namespace": namespace,
		},
		"spec": map[string]interface{}{
			"entryPoints": []string{"websecure"},
			"routes": []map[string]interface{}{{
				"match": fmt.Sprintf("HostSNI(`%s`)", escapeYAMLString(domain)),
				"services": []map[string]interface{}{{
					"name": name,
					"port": servicePort,
				}},
			}},
			"tls": map[string]interface{}{"passthrough": true},
		},
	}
	return marshal(obj)
}

func marshal(obj interface{}) (string, error) {
	b, err := yaml.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	return string(b), nil
}

// escapeYAMLString escapes embedded double quotes, for the handful of
// places (like the IngressRouteTCP match expression) where a string is
// interpolated into a larger templated value rather than handed to the
// yaml marshaler directly.
func escapeYAMLString(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func strPtr(s string) *string { return &s }
